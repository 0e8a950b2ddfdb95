package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/llm4edu/freetext/internal/model"

	_ "modernc.org/sqlite"
)

// SQLite is the durable Store backend.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral database.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		student_prompt TEXT NOT NULL,
		feedback_requirements TEXT NOT NULL DEFAULT '[]',
		feedback_instructions TEXT NOT NULL DEFAULT '',
		fallback_response TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		assignment_id TEXT NOT NULL,
		submission TEXT NOT NULL,
		feedback TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (assignment_id) REFERENCES assignments(id)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateAssignment stores an assignment under a new UUID and returns it.
func (s *SQLite) CreateAssignment(a model.Assignment) (string, error) {
	id := uuid.NewString()
	reqs, err := json.Marshal(a.FeedbackRequirements)
	if err != nil {
		return "", fmt.Errorf("marshal requirements: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO assignments (id, student_prompt, feedback_requirements, feedback_instructions, fallback_response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, a.StudentPrompt, string(reqs), a.FeedbackInstructions, a.FallbackResponse, time.Now(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetAssignment returns an assignment by ID.
func (s *SQLite) GetAssignment(id string) (model.Assignment, error) {
	var a model.Assignment
	var reqs string
	err := s.db.QueryRow(
		`SELECT id, student_prompt, feedback_requirements, feedback_instructions, fallback_response, created_at
		 FROM assignments WHERE id = ?`, id,
	).Scan(&a.ID, &a.StudentPrompt, &reqs, &a.FeedbackInstructions, &a.FallbackResponse, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Assignment{}, ErrNotFound
	}
	if err != nil {
		return model.Assignment{}, err
	}
	if err := json.Unmarshal([]byte(reqs), &a.FeedbackRequirements); err != nil {
		return model.Assignment{}, fmt.Errorf("unmarshal requirements: %w", err)
	}
	return a, nil
}

// ListAssignmentIDs returns all assignment IDs, oldest first.
func (s *SQLite) ListAssignmentIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM assignments ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignmentCount returns the number of assignments in the database.
func (s *SQLite) AssignmentCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM assignments`).Scan(&count)
	return count, err
}

// SaveResponse stores a response audit record under a new UUID.
func (s *SQLite) SaveResponse(r model.Response) (string, error) {
	id := uuid.NewString()
	fb, err := json.Marshal(r.Feedback)
	if err != nil {
		return "", fmt.Errorf("marshal feedback: %w", err)
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = s.db.Exec(
		`INSERT INTO responses (id, assignment_id, submission, feedback, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, r.AssignmentID, r.SubmissionString, string(fb), createdAt,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListResponses returns all stored responses, oldest first.
func (s *SQLite) ListResponses() ([]model.Response, error) {
	rows, err := s.db.Query(
		`SELECT id, assignment_id, submission, feedback, created_at FROM responses ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var responses []model.Response
	for rows.Next() {
		var r model.Response
		var fb string
		if err := rows.Scan(&r.ID, &r.AssignmentID, &r.SubmissionString, &fb, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fb), &r.Feedback); err != nil {
			return nil, fmt.Errorf("unmarshal feedback for %s: %w", r.ID, err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// GetImportedFileHash returns the recorded hash for a seed file path.
// Returns empty string and nil error if the path was never imported.
func (s *SQLite) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash upserts the hash for a seed file path.
func (s *SQLite) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?`,
		path, hash, hash,
	)
	return err
}
