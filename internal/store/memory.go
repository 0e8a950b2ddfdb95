package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llm4edu/freetext/internal/model"
)

// Memory is an in-process Store backend for development and tests.
// Safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	assignments map[string]model.Assignment
	responses   []model.Response
	imports     map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		assignments: make(map[string]model.Assignment),
		imports:     make(map[string]string),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateAssignment(a model.Assignment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	a.ID = id
	a.CreatedAt = time.Now()
	m.assignments[id] = a
	return id, nil
}

func (m *Memory) GetAssignment(id string) (model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok {
		return model.Assignment{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) ListAssignmentIDs() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id := range m.assignments {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) AssignmentCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assignments), nil
}

func (m *Memory) SaveResponse(r model.Response) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	m.responses = append(m.responses, r)
	return r.ID, nil
}

func (m *Memory) ListResponses() ([]model.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Response, len(m.responses))
	copy(out, m.responses)
	return out, nil
}

func (m *Memory) GetImportedFileHash(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.imports[path], nil
}

func (m *Memory) SetImportedFileHash(path, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports[path] = hash
	return nil
}
