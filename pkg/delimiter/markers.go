package delimiter

import (
	"strings"

	"github.com/pkg/errors"
)

// Default marker tokens
const (
	DefaultChunkStart = "CHUNK START"
	DefaultChunkEnd   = "CHUNK END"
	DefaultContext    = "[COPILOT CONTEXT]"
	DefaultContextAll = "[COPILOT CONTEXT ALL]"
)

var ErrInvalidMarkers = errors.New("invalid marker configuration")

// Markers are the keyword tokens that follow a line-comment prefix.
// Context is used both to open and to close a context region.
type Markers struct {
	ChunkStart string `json:"chunk_start" yaml:"chunk_start" toml:"chunk_start"`
	ChunkEnd   string `json:"chunk_end" yaml:"chunk_end" toml:"chunk_end"`
	Context    string `json:"context" yaml:"context" toml:"context"`
	ContextAll string `json:"context_all" yaml:"context_all" toml:"context_all"`
}

// DefaultMarkers returns the built-in marker tokens
func DefaultMarkers() Markers {
	return Markers{
		ChunkStart: DefaultChunkStart,
		ChunkEnd:   DefaultChunkEnd,
		Context:    DefaultContext,
		ContextAll: DefaultContextAll,
	}
}

// WithDefaults fills empty tokens from DefaultMarkers
func (m Markers) WithDefaults() Markers {
	d := DefaultMarkers()
	if strings.TrimSpace(m.ChunkStart) == "" {
		m.ChunkStart = d.ChunkStart
	}
	if strings.TrimSpace(m.ChunkEnd) == "" {
		m.ChunkEnd = d.ChunkEnd
	}
	if strings.TrimSpace(m.Context) == "" {
		m.Context = d.Context
	}
	if strings.TrimSpace(m.ContextAll) == "" {
		m.ContextAll = d.ContextAll
	}
	return m
}

// Validate rejects token sets that would make chunk or context regions ambiguous
func (m Markers) Validate() error {
	fields := map[string]string{
		"chunk_start": m.ChunkStart,
		"chunk_end":   m.ChunkEnd,
		"context":     m.Context,
		"context_all": m.ContextAll,
	}
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return errors.Wrapf(ErrInvalidMarkers, "%s is empty", name)
		}
		if strings.ContainsAny(v, "\r\n") {
			return errors.Wrapf(ErrInvalidMarkers, "%s spans lines", name)
		}
	}
	if m.ChunkStart == m.ChunkEnd {
		return errors.Wrap(ErrInvalidMarkers, "chunk_start and chunk_end must differ")
	}
	if m.Context == m.ContextAll {
		return errors.Wrap(ErrInvalidMarkers, "context and context_all must differ")
	}
	if strings.HasPrefix(m.ContextAll, m.Context) || strings.HasPrefix(m.Context, m.ContextAll) {
		return errors.Wrap(ErrInvalidMarkers, "context and context_all must not prefix each other")
	}
	if m.Context == m.ChunkStart || m.Context == m.ChunkEnd {
		return errors.Wrap(ErrInvalidMarkers, "context must differ from chunk markers")
	}
	return nil
}
