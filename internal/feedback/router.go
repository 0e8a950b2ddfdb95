package feedback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/llm4edu/freetext/internal/model"
	"github.com/llm4edu/freetext/internal/store"
)

const fallbackSource = "fallback"

// Router fans a submission out to its feedback providers and aggregates
// the results. When no provider produces anything, the assignment's
// configured fallback response is substituted, so students never see a
// provider failure while a fallback exists. Responses are optionally
// persisted for audit, best-effort.
type Router struct {
	providers      []Provider
	store          store.Store
	storeResponses bool
}

// NewRouter creates a router over the given providers.
func NewRouter(s store.Store, storeResponses bool, providers ...Provider) *Router {
	return &Router{
		providers:      providers,
		store:          s,
		storeResponses: storeResponses,
	}
}

// AddProvider appends a provider to the router.
func (r *Router) AddProvider(p Provider) {
	r.providers = append(r.providers, p)
}

// Feedback collects feedback from all providers for a submission.
// The assignment must already be resolved by the caller.
func (r *Router) Feedback(ctx context.Context, a model.Assignment, sub model.Submission) ([]model.Feedback, error) {
	var all []model.Feedback
	var lastErr error

	for _, p := range r.providers {
		items, err := p.Feedback(ctx, a, sub)
		if err != nil {
			slog.Error("feedback provider failed", "provider", p.Name(), "assignment_id", sub.AssignmentID, "error", err)
			lastErr = err
			continue
		}
		all = append(all, items...)
	}

	if len(all) == 0 {
		switch {
		case a.FallbackResponse != "":
			if lastErr != nil {
				slog.Warn("substituting fallback response", "assignment_id", sub.AssignmentID, "error", lastErr)
			}
			all = []model.Feedback{{
				FeedbackString: a.FallbackResponse,
				Source:         fallbackSource,
			}}
		case lastErr != nil:
			return nil, fmt.Errorf("%w: %v", ErrGeneration, lastErr)
		}
	}

	if r.storeResponses {
		if _, err := r.store.SaveResponse(model.Response{
			AssignmentID:     sub.AssignmentID,
			SubmissionString: sub.SubmissionString,
			Feedback:         all,
		}); err != nil {
			slog.Error("failed to store response", "assignment_id", sub.AssignmentID, "error", err)
		}
	}

	return all, nil
}
