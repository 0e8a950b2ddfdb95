package feedback

import (
	"context"
	"fmt"
	"regexp"

	"github.com/llm4edu/freetext/internal/model"
)

var standaloneDigitRegex = regexp.MustCompile(`\b(\d)\b`)

// DigitFinder is a deterministic local provider that flags standalone
// digits under ten and suggests writing them out as words. It needs no
// network access and is mostly useful as a style check alongside the LLM
// provider.
type DigitFinder struct{}

func (DigitFinder) Name() string { return "digit-finder" }

func (DigitFinder) Feedback(_ context.Context, _ model.Assignment, sub model.Submission) ([]model.Feedback, error) {
	var feedback []model.Feedback
	for _, match := range standaloneDigitRegex.FindAllStringSubmatchIndex(sub.SubmissionString, -1) {
		start, stop := match[2], match[3]
		digit := sub.SubmissionString[start:stop]
		feedback = append(feedback, model.Feedback{
			FeedbackString: fmt.Sprintf("The author should write out the number %s as a word.", digit),
			Source:         "digit-finder",
			Location:       []int{start, stop},
		})
	}
	return feedback, nil
}
