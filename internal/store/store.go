package store

import (
	"errors"

	"github.com/llm4edu/freetext/internal/model"
)

// ErrNotFound is returned when a record with the given ID does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists assignments and responses. Backends must guarantee that a
// successful write is visible to a subsequent read from the same process.
// Assignments are immutable once created and are never deleted here.
type Store interface {
	// CreateAssignment stores a new assignment under a freshly generated ID
	// and returns that ID.
	CreateAssignment(a model.Assignment) (string, error)
	// GetAssignment returns the assignment with the given ID, or ErrNotFound.
	GetAssignment(id string) (model.Assignment, error)
	// ListAssignmentIDs returns all assignment IDs.
	ListAssignmentIDs() ([]string, error)
	// AssignmentCount returns the number of stored assignments.
	AssignmentCount() (int, error)

	// SaveResponse stores a submission audit record under a freshly
	// generated ID and returns that ID.
	SaveResponse(r model.Response) (string, error)
	// ListResponses returns all stored responses, oldest first.
	ListResponses() ([]model.Response, error)

	// GetImportedFileHash returns the recorded content hash for a seed
	// file path, or empty string if the path was never imported.
	GetImportedFileHash(path string) (string, error)
	// SetImportedFileHash records the content hash for a seed file path.
	SetImportedFileHash(path, hash string) error

	Close() error
}
