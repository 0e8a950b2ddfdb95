package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/llm4edu/freetext/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	studentResponseRegex    = regexp.MustCompile(`(?i)</?\s*student-response\b[^>]*>`)
	graderCriteriaRegex     = regexp.MustCompile(`(?i)</?\s*grader-criteria\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// SystemFeedback primes the model for grading student submissions.
const SystemFeedback = "You are a helpful instructor, who knows that students need precise and terse feedback. Students are most motivated if you are engaging and remain positive, but it is more important to be honest and accurate than cheerful."

// SystemSuggest primes the model for authoring-time suggestions.
const SystemSuggest = "You are a knowledgeable instructor who is working to develop a course."

const (
	templateFeedback        = "feedback"
	templateSuggestQuestion = "suggest_question"
	templateSuggestCriteria = "suggest_criteria"
)

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

func load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, name := range []string{templateFeedback, templateSuggestQuestion, templateSuggestCriteria} {
			content, err := templateFS.ReadFile("templates/" + name + ".txt")
			if err != nil {
				loadErr = errors.New("read prompt template " + name + ": " + err.Error())
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = errors.New("parse prompt template " + name + ": " + err.Error())
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// FeedbackData holds template data for the submission feedback prompt.
type FeedbackData struct {
	StudentPrompt string
	Requirements  []string
	Instructions  string
	Submission    string
}

// SuggestData holds template data for the authoring-time suggestion prompts.
type SuggestData struct {
	StudentPrompt string
	Requirements  []string
}

func execute(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildFeedbackPrompt builds the user prompt for grading a submission
// against an assignment's hidden criteria.
func BuildFeedbackPrompt(a model.Assignment, sub model.Submission) (string, error) {
	return execute(templateFeedback, FeedbackData{
		StudentPrompt: a.StudentPrompt,
		Requirements:  a.FeedbackRequirements,
		Instructions:  strings.TrimSpace(a.FeedbackInstructions),
		Submission:    SanitizeSubmission(sub.SubmissionString),
	})
}

// BuildSuggestQuestionPrompt builds the user prompt for improving a draft
// student-facing question.
func BuildSuggestQuestionPrompt(a model.Assignment) (string, error) {
	return execute(templateSuggestQuestion, SuggestData{
		StudentPrompt: a.StudentPrompt,
		Requirements:  a.FeedbackRequirements,
	})
}

// BuildSuggestCriteriaPrompt builds the user prompt for suggesting grading
// criteria from a partially filled assignment.
func BuildSuggestCriteriaPrompt(a model.Assignment) (string, error) {
	return execute(templateSuggestCriteria, SuggestData{
		StudentPrompt: a.StudentPrompt,
		Requirements:  a.FeedbackRequirements,
	})
}

// SanitizeSubmission strips injection-style tags from a submission and
// truncates it to a bounded length before it is embedded in a prompt.
func SanitizeSubmission(submission string) string {
	submission = studentResponseRegex.ReplaceAllString(submission, "")
	submission = graderCriteriaRegex.ReplaceAllString(submission, "")
	submission = systemInstructionsRegex.ReplaceAllString(submission, "")
	submission = strings.TrimSpace(submission)

	if submission == "" {
		return "[No response provided]"
	}

	if utf8.RuneCountInString(submission) > 10000 {
		runes := []rune(submission)
		runes = runes[:10000]
		submission = string(runes) + "\n\n[Response truncated due to length]"
	}

	return submission
}
