package feedback

import (
	"context"
	"errors"

	"github.com/llm4edu/freetext/internal/model"
)

// ErrGeneration reports that no provider could produce feedback and the
// assignment has no fallback response configured.
var ErrGeneration = errors.New("feedback generation failed")

// Provider produces feedback for a submission against an assignment.
type Provider interface {
	// Name identifies the provider in feedback items and logs.
	Name() string
	// Feedback returns zero or more feedback items. Returning an empty
	// list is not an error: it means every criterion was met.
	Feedback(ctx context.Context, a model.Assignment, sub model.Submission) ([]model.Feedback, error)
}
