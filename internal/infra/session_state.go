package infra

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/fpt/auto-context/internal/repository"
)

// FileSessionStateRepository stores session state as JSON in a single file
type FileSessionStateRepository struct {
	path string
}

// NewFileSessionStateRepository creates a repository backed by path
func NewFileSessionStateRepository(path string) *FileSessionStateRepository {
	return &FileSessionStateRepository{path: path}
}

// Load returns an empty state when the file does not exist yet
func (r *FileSessionStateRepository) Load() (repository.SessionState, error) {
	var state repository.SessionState
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, errors.Wrapf(err, "failed to read session state %s", r.path)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, errors.Wrapf(err, "failed to parse session state %s", r.path)
	}
	return state, nil
}

func (r *FileSessionStateRepository) Save(state repository.SessionState) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create session state directory")
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session state")
	}
	return errors.Wrapf(os.WriteFile(r.path, data, 0644), "failed to write session state %s", r.path)
}

// InMemorySessionStateRepository keeps session state for the lifetime of the process
type InMemorySessionStateRepository struct {
	mu    sync.Mutex
	state repository.SessionState
}

func NewInMemorySessionStateRepository() *InMemorySessionStateRepository {
	return &InMemorySessionStateRepository{}
}

func (r *InMemorySessionStateRepository) Load() (repository.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *InMemorySessionStateRepository) Save(state repository.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	return nil
}
