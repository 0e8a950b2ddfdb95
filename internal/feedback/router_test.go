package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/llm4edu/freetext/internal/model"
	"github.com/llm4edu/freetext/internal/store"
)

type fakeProvider struct {
	name  string
	items []model.Feedback
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Feedback(_ context.Context, _ model.Assignment, _ model.Submission) ([]model.Feedback, error) {
	f.calls++
	return f.items, f.err
}

func item(s, source string) model.Feedback {
	return model.Feedback{FeedbackString: s, Source: source}
}

func TestRouterAggregatesProviders(t *testing.T) {
	p1 := &fakeProvider{name: "a", items: []model.Feedback{item("first", "a")}}
	p2 := &fakeProvider{name: "b", items: []model.Feedback{item("second", "b"), item("third", "b")}}
	r := NewRouter(store.NewMemory(), false, p1)
	r.AddProvider(p2)

	got, err := r.Feedback(context.Background(), model.Assignment{}, model.Submission{})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].FeedbackString != "first" || got[2].FeedbackString != "third" {
		t.Errorf("unexpected order: %+v", got)
	}
	if p1.calls != 1 || p2.calls != 1 {
		t.Errorf("expected each provider called once, got %d and %d", p1.calls, p2.calls)
	}
}

func TestRouterFallbackOnProviderError(t *testing.T) {
	p := &fakeProvider{name: "a", err: errors.New("boom")}
	r := NewRouter(store.NewMemory(), false, p)
	a := model.Assignment{FallbackResponse: "Your response has been recorded."}

	got, err := r.Feedback(context.Background(), a, model.Submission{})
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].FeedbackString != a.FallbackResponse {
		t.Errorf("expected fallback text, got %q", got[0].FeedbackString)
	}
	if got[0].Source != "fallback" {
		t.Errorf("expected source 'fallback', got %q", got[0].Source)
	}
}

func TestRouterFallbackOnEmptySuccess(t *testing.T) {
	// Providers succeed but find nothing to say; the fallback still
	// substitutes so the student gets a response.
	p := &fakeProvider{name: "a"}
	r := NewRouter(store.NewMemory(), false, p)
	a := model.Assignment{FallbackResponse: "Your response has been recorded."}

	got, err := r.Feedback(context.Background(), a, model.Submission{})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].FeedbackString != a.FallbackResponse || got[0].Source != "fallback" {
		t.Errorf("expected fallback item, got %+v", got[0])
	}
}

func TestRouterErrorWithoutFallback(t *testing.T) {
	p := &fakeProvider{name: "a", err: errors.New("boom")}
	r := NewRouter(store.NewMemory(), false, p)

	_, err := r.Feedback(context.Background(), model.Assignment{}, model.Submission{})
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("expected ErrGeneration, got %v", err)
	}
}

func TestRouterOneProviderFailingIsMasked(t *testing.T) {
	bad := &fakeProvider{name: "bad", err: errors.New("boom")}
	good := &fakeProvider{name: "good", items: []model.Feedback{item("ok", "good")}}
	r := NewRouter(store.NewMemory(), false, bad, good)

	got, err := r.Feedback(context.Background(), model.Assignment{}, model.Submission{})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got) != 1 || got[0].FeedbackString != "ok" {
		t.Errorf("expected surviving provider's items, got %+v", got)
	}
}

func TestRouterEmptyWithoutErrorIsNotFallback(t *testing.T) {
	// All criteria met: no items, no error, so no fallback substitution
	// and no generation failure either.
	p := &fakeProvider{name: "a"}
	r := NewRouter(store.NewMemory(), false, p)

	got, err := r.Feedback(context.Background(), model.Assignment{}, model.Submission{})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no items, got %+v", got)
	}
}

func TestRouterStoresResponses(t *testing.T) {
	mem := store.NewMemory()
	p := &fakeProvider{name: "a", items: []model.Feedback{item("first", "a")}}
	r := NewRouter(mem, true, p)

	sub := model.Submission{AssignmentID: "asg-1", SubmissionString: "my answer"}
	if _, err := r.Feedback(context.Background(), model.Assignment{}, sub); err != nil {
		t.Fatalf("Feedback: %v", err)
	}

	responses, err := mem.ListResponses()
	if err != nil {
		t.Fatalf("ListResponses: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("expected 1 stored response, got %d", len(responses))
	}
	if responses[0].AssignmentID != "asg-1" || responses[0].SubmissionString != "my answer" {
		t.Errorf("unexpected stored response: %+v", responses[0])
	}
	if len(responses[0].Feedback) != 1 {
		t.Errorf("expected stored feedback, got %+v", responses[0].Feedback)
	}
}

func TestRouterDisabledResponseStore(t *testing.T) {
	mem := store.NewMemory()
	p := &fakeProvider{name: "a", items: []model.Feedback{item("first", "a")}}
	r := NewRouter(mem, false, p)

	if _, err := r.Feedback(context.Background(), model.Assignment{}, model.Submission{}); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	responses, _ := mem.ListResponses()
	if len(responses) != 0 {
		t.Errorf("expected no stored responses, got %d", len(responses))
	}
}

func TestDigitFinder(t *testing.T) {
	var df DigitFinder
	sub := model.Submission{SubmissionString: "There are 3 parts, 42 wires, and 7 nodes."}

	got, err := df.Feedback(context.Background(), model.Assignment{}, sub)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items (3 and 7, not 42), got %d: %+v", len(got), got)
	}
	if got[0].FeedbackString != "The author should write out the number 3 as a word." {
		t.Errorf("unexpected first item: %q", got[0].FeedbackString)
	}
	if len(got[0].Location) != 2 || sub.SubmissionString[got[0].Location[0]:got[0].Location[1]] != "3" {
		t.Errorf("unexpected location: %v", got[0].Location)
	}

	clean, err := df.Feedback(context.Background(), model.Assignment{}, model.Submission{SubmissionString: "no digits here"})
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(clean) != 0 {
		t.Errorf("expected no items, got %+v", clean)
	}
}
