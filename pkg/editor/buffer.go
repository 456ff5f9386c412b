// Package editor defines the contracts between the aggregation engine and the
// editing session that hosts it: buffer snapshots, replacement instructions,
// and the session provider that lists, focuses and writes buffers.
package editor

import (
	"context"

	"github.com/pkg/errors"
)

// Storage schemes a buffer URI may carry
const (
	SchemeFile     = "file"
	SchemeUntitled = "untitled"
)

var (
	ErrBufferNotFound = errors.New("buffer not found")
	ErrNoActiveBuffer = errors.New("no active buffer")
	ErrRangeOutOfDate = errors.New("replacement range does not fit buffer text")
)

// Buffer is a read-only snapshot of an open text buffer
type Buffer struct {
	URI        string `json:"uri" jsonschema:"required,description=Opaque buffer identifier such as file:///src/a.ts"`
	Scheme     string `json:"scheme,omitempty" jsonschema:"description=Storage scheme; file buffers are persisted and eligible as context sources,enum=file,enum=untitled"`
	LanguageID string `json:"language_id" jsonschema:"required,description=Editor language identifier such as typescript"`
	Text       string `json:"text" jsonschema:"description=Full buffer text"`
}

// IsPersisted reports whether the buffer is backed by a saved file
func (b Buffer) IsPersisted() bool {
	return b.Scheme == SchemeFile
}

// Session enumerates open buffers and identifies the active one
type Session interface {
	ListOpenBuffers(ctx context.Context) ([]Buffer, error)
	// ActiveBuffer returns false when no buffer has focus
	ActiveBuffer(ctx context.Context) (Buffer, bool, error)
}

// Writer applies a replacement to a live buffer
type Writer interface {
	ApplyReplacement(ctx context.Context, uri string, r Replacement) error
}

// Editor is a session that can also be written to
type Editor interface {
	Session
	Writer
}
