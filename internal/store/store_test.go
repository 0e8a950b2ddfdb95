package store

import (
	"errors"
	"testing"

	"github.com/llm4edu/freetext/internal/model"
)

// backends lists every Store implementation under test.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemory(),
	}
}

func testAssignment() model.Assignment {
	return model.Assignment{
		StudentPrompt: "Explain what a neuron is.",
		FeedbackRequirements: []string{
			"Must include the terms 'synapse' and 'action potential'.",
			"Must mention the role of neurotransmitters.",
		},
		FeedbackInstructions: "Be terse.",
		FallbackResponse:     "Your response has been recorded.",
	}
}

func TestAssignmentRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			count, err := s.AssignmentCount()
			if err != nil {
				t.Fatalf("AssignmentCount: %v", err)
			}
			if count != 0 {
				t.Fatalf("expected 0 assignments, got %d", count)
			}

			id, err := s.CreateAssignment(testAssignment())
			if err != nil {
				t.Fatalf("CreateAssignment: %v", err)
			}
			if id == "" {
				t.Fatal("expected non-empty assignment ID")
			}

			got, err := s.GetAssignment(id)
			if err != nil {
				t.Fatalf("GetAssignment: %v", err)
			}
			if got.ID != id {
				t.Errorf("expected ID %q, got %q", id, got.ID)
			}
			if got.StudentPrompt != "Explain what a neuron is." {
				t.Errorf("unexpected prompt: %q", got.StudentPrompt)
			}
			if len(got.FeedbackRequirements) != 2 {
				t.Fatalf("expected 2 requirements, got %d", len(got.FeedbackRequirements))
			}
			if got.FeedbackRequirements[1] != "Must mention the role of neurotransmitters." {
				t.Errorf("unexpected requirement: %q", got.FeedbackRequirements[1])
			}
			if got.FallbackResponse != "Your response has been recorded." {
				t.Errorf("unexpected fallback: %q", got.FallbackResponse)
			}
			if got.CreatedAt.IsZero() {
				t.Error("expected created_at to be set")
			}

			count, err = s.AssignmentCount()
			if err != nil {
				t.Fatalf("AssignmentCount: %v", err)
			}
			if count != 1 {
				t.Errorf("expected count 1, got %d", count)
			}
		})
	}
}

func TestGetAssignmentNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetAssignment("no-such-id")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestListAssignmentIDs(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ids, err := s.ListAssignmentIDs()
			if err != nil {
				t.Fatalf("ListAssignmentIDs: %v", err)
			}
			if len(ids) != 0 {
				t.Fatalf("expected empty list, got %d", len(ids))
			}

			id1, _ := s.CreateAssignment(testAssignment())
			id2, _ := s.CreateAssignment(testAssignment())

			ids, err = s.ListAssignmentIDs()
			if err != nil {
				t.Fatalf("ListAssignmentIDs: %v", err)
			}
			if len(ids) != 2 {
				t.Fatalf("expected 2 IDs, got %d", len(ids))
			}
			seen := map[string]bool{}
			for _, id := range ids {
				seen[id] = true
			}
			if !seen[id1] || !seen[id2] {
				t.Errorf("expected both %q and %q in %v", id1, id2, ids)
			}
		})
	}
}

func TestResponses(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			asgID, err := s.CreateAssignment(testAssignment())
			if err != nil {
				t.Fatalf("CreateAssignment: %v", err)
			}

			id, err := s.SaveResponse(model.Response{
				AssignmentID:     asgID,
				SubmissionString: "Neurons are cells that transmit information.",
				Feedback: []model.Feedback{
					{FeedbackString: "The author should mention neurotransmitters.", Source: "openai"},
				},
			})
			if err != nil {
				t.Fatalf("SaveResponse: %v", err)
			}
			if id == "" {
				t.Fatal("expected non-empty response ID")
			}

			responses, err := s.ListResponses()
			if err != nil {
				t.Fatalf("ListResponses: %v", err)
			}
			if len(responses) != 1 {
				t.Fatalf("expected 1 response, got %d", len(responses))
			}
			r := responses[0]
			if r.AssignmentID != asgID {
				t.Errorf("expected assignment ID %q, got %q", asgID, r.AssignmentID)
			}
			if len(r.Feedback) != 1 || r.Feedback[0].Source != "openai" {
				t.Errorf("unexpected feedback: %+v", r.Feedback)
			}
			if r.CreatedAt.IsZero() {
				t.Error("expected created_at to be set")
			}
		})
	}
}

func TestImportedFileHash(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			hash, err := s.GetImportedFileHash("/seed/intro.json")
			if err != nil {
				t.Fatalf("GetImportedFileHash: %v", err)
			}
			if hash != "" {
				t.Errorf("expected empty hash, got %q", hash)
			}

			if err := s.SetImportedFileHash("/seed/intro.json", "abc123"); err != nil {
				t.Fatalf("SetImportedFileHash: %v", err)
			}
			hash, err = s.GetImportedFileHash("/seed/intro.json")
			if err != nil {
				t.Fatalf("GetImportedFileHash: %v", err)
			}
			if hash != "abc123" {
				t.Errorf("expected 'abc123', got %q", hash)
			}

			if err := s.SetImportedFileHash("/seed/intro.json", "def456"); err != nil {
				t.Fatalf("SetImportedFileHash update: %v", err)
			}
			hash, _ = s.GetImportedFileHash("/seed/intro.json")
			if hash != "def456" {
				t.Errorf("expected 'def456', got %q", hash)
			}
		})
	}
}
