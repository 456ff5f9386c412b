package infra

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/fpt/auto-context/pkg/editor"
)

// MemorySession is an editor.Editor holding every buffer in memory.
// It backs the MCP tools and tests.
type MemorySession struct {
	mu      sync.RWMutex
	buffers []editor.Buffer
	active  string
	writes  int
}

// NewMemorySession creates a session from buffers in open order.
// A repeated URI keeps the first buffer seen.
func NewMemorySession(buffers ...editor.Buffer) *MemorySession {
	s := &MemorySession{}
	for _, b := range buffers {
		s.add(b, false)
	}
	return s
}

// Add opens a buffer, replacing any buffer with the same URI
func (s *MemorySession) Add(b editor.Buffer) {
	s.add(b, true)
}

func (s *MemorySession) add(b editor.Buffer, replace bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Scheme == "" {
		b.Scheme = editor.SchemeFile
	}
	if i := s.indexLocked(b.URI); i >= 0 {
		if replace {
			s.buffers[i] = b
		}
		return
	}
	s.buffers = append(s.buffers, b)
}

// SetActive focuses a buffer; "" clears the focus
func (s *MemorySession) SetActive(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uri == "" {
		s.active = ""
		return nil
	}
	if s.indexLocked(uri) < 0 {
		return errors.Wrap(editor.ErrBufferNotFound, uri)
	}
	s.active = uri
	return nil
}

// Text returns the current text of a buffer
func (s *MemorySession) Text(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(uri); i >= 0 {
		return s.buffers[i].Text, true
	}
	return "", false
}

// Writes counts applied replacements
func (s *MemorySession) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *MemorySession) indexLocked(uri string) int {
	for i := range s.buffers {
		if s.buffers[i].URI == uri {
			return i
		}
	}
	return -1
}

func (s *MemorySession) ListOpenBuffers(ctx context.Context) ([]editor.Buffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]editor.Buffer(nil), s.buffers...), nil
}

func (s *MemorySession) ActiveBuffer(ctx context.Context) (editor.Buffer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == "" {
		return editor.Buffer{}, false, nil
	}
	i := s.indexLocked(s.active)
	if i < 0 {
		return editor.Buffer{}, false, nil
	}
	return s.buffers[i], true, nil
}

func (s *MemorySession) ApplyReplacement(ctx context.Context, uri string, r editor.Replacement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(uri)
	if i < 0 {
		return errors.Wrap(editor.ErrBufferNotFound, uri)
	}
	text, err := r.Apply(s.buffers[i].Text)
	if err != nil {
		return err
	}
	s.buffers[i].Text = text
	s.writes++
	return nil
}
