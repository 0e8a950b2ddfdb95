package model

import "time"

// Assignment is an educator-authored question together with the hidden
// grading criteria the LLM grader uses to produce feedback. Students only
// ever see StudentPrompt; everything else is grader-side.
type Assignment struct {
	ID                   string    `json:"id,omitempty"`
	StudentPrompt        string    `json:"student_prompt"`
	FeedbackRequirements []string  `json:"feedback_requirements"`
	FeedbackInstructions string    `json:"feedback_instructions,omitempty"`
	FallbackResponse     string    `json:"fallback_response,omitempty"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
}

// Submission is a student's free-text answer to an assignment.
type Submission struct {
	AssignmentID     string `json:"assignment_id"`
	SubmissionString string `json:"submission_string"`
}

// Feedback is one discrete piece of generated guidance. Location, when
// present, is a [start, stop) character span into the submission.
type Feedback struct {
	FeedbackString string `json:"feedback_string"`
	Source         string `json:"source"`
	Location       []int  `json:"location,omitempty"`
}

// Response is the stored audit record of one submission and the feedback it
// received. Derived data: recomputable from assignment plus submission.
type Response struct {
	ID               string     `json:"id"`
	AssignmentID     string     `json:"assignment_id"`
	SubmissionString string     `json:"submission_string"`
	Feedback         []Feedback `json:"feedback"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AssignmentImport is used for seeding assignments from JSON files.
type AssignmentImport struct {
	StudentPrompt        string   `json:"student_prompt"`
	FeedbackRequirements []string `json:"feedback_requirements"`
	FeedbackInstructions string   `json:"feedback_instructions"`
	FallbackResponse     string   `json:"fallback_response"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	CreationSecret string // shared secret for assignment authoring endpoints
	StoreResponses bool   // persist submissions and their feedback
	DigitFinder    bool   // enable the local standalone-digit provider
}
