// Package trigger decides when the aggregation engine runs: on focus changes,
// on edits to the active buffer, and on file events from a watcher.
package trigger

import (
	"context"
	"crypto/sha256"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fpt/auto-context/pkg/aggregator"
	"github.com/fpt/auto-context/pkg/editor"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// Status classifies the outcome of one trigger
type Status string

const (
	StatusApplied     Status = "applied"
	StatusUnchanged   Status = "unchanged"   // target already carries the block
	StatusDryRun      Status = "dry-run"     // replacement computed but not written
	StatusNoTarget    Status = "no-target"   // nothing has focus
	StatusUnsupported Status = "unsupported" // target language not eligible
	StatusNotActive   Status = "not-active"  // edit to a buffer without focus
	StatusEcho        Status = "echo"        // edit caused by our own write
	StatusSuperseded  Status = "superseded"  // focus moved while the run was in flight
)

// Outcome describes what one trigger did
type Outcome struct {
	Status Status            `json:"status"`
	Target string            `json:"target,omitempty"`
	Result aggregator.Result `json:"result"`
}

// Wrote reports whether the target buffer was modified
func (o Outcome) Wrote() bool {
	return o.Status == StatusApplied
}

// Coordinator runs the engine against an editor session. A generation counter
// bumped on every focus change invalidates runs that started under an older
// focus, and a fingerprint of the last written text filters out the edit
// events our own writes produce.
type Coordinator struct {
	engine *aggregator.Engine
	editor editor.Editor
	dryRun bool

	generation atomic.Uint64
	runMu      sync.Mutex // one run at a time
	mu         sync.Mutex
	lastWrite  map[string][sha256.Size]byte

	sessionID string
	logger    *pkgLogger.Logger
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithDryRun computes replacements without writing them
func WithDryRun(dryRun bool) Option {
	return func(c *Coordinator) {
		c.dryRun = dryRun
	}
}

// WithSessionID overrides the generated session id used to tag log lines
func WithSessionID(id string) Option {
	return func(c *Coordinator) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// NewCoordinator creates a coordinator for ed
func NewCoordinator(engine *aggregator.Engine, ed editor.Editor, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:    engine,
		editor:    ed,
		lastWrite: make(map[string][sha256.Size]byte),
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = pkgLogger.NewComponentLogger("trigger").WithSession(c.sessionID)
	return c
}

// SessionID returns the id tagging this coordinator's log lines
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Generation returns the current focus generation
func (c *Coordinator) Generation() uint64 {
	return c.generation.Load()
}

// OnActiveBufferChanged invalidates in-flight runs and refreshes the newly focused buffer
func (c *Coordinator) OnActiveBufferChanged(ctx context.Context) (Outcome, error) {
	gen := c.generation.Add(1)
	c.logger.DebugWithIntention(pkgLogger.IntentionSession, "Active buffer changed", "generation", gen)
	return c.RunOnce(ctx)
}

// OnTextChanged refreshes the target when uri is the active buffer and the
// change is not the echo of our own last write.
func (c *Coordinator) OnTextChanged(ctx context.Context, uri string) (Outcome, error) {
	target, ok, err := c.editor.ActiveBuffer(ctx)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to read active buffer")
	}
	if !ok {
		return Outcome{Status: StatusNoTarget}, nil
	}
	if target.URI != uri {
		return Outcome{Status: StatusNotActive, Target: target.URI}, nil
	}
	if c.isEcho(uri, target.Text) {
		c.logger.DebugWithIntention(pkgLogger.IntentionSkip, "Ignoring self-generated edit", "uri", uri)
		return Outcome{Status: StatusEcho, Target: uri}, nil
	}
	return c.RunOnce(ctx)
}

// RunOnce aggregates every open buffer into the active one
func (c *Coordinator) RunOnce(ctx context.Context) (Outcome, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	gen := c.generation.Load()

	target, ok, err := c.editor.ActiveBuffer(ctx)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to read active buffer")
	}
	if !ok {
		c.logger.DebugWithIntention(pkgLogger.IntentionSkip, "No active buffer")
		return Outcome{Status: StatusNoTarget}, nil
	}
	if !c.engine.Supports(target.LanguageID) {
		c.logger.DebugWithIntention(pkgLogger.IntentionSkip, "Target language not supported",
			"uri", target.URI, "language", target.LanguageID)
		return Outcome{Status: StatusUnsupported, Target: target.URI}, nil
	}

	buffers, err := c.editor.ListOpenBuffers(ctx)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to list open buffers")
	}
	candidates := aggregator.SelectCandidates(buffers, target.URI)

	result, _ := c.engine.Run(candidates, target)
	outcome := Outcome{Target: target.URI, Result: result}

	if !result.Replacement.Changes(target.Text) {
		outcome.Status = StatusUnchanged
		return outcome, nil
	}
	if c.dryRun {
		outcome.Status = StatusDryRun
		return outcome, nil
	}
	if c.generation.Load() != gen {
		c.logger.DebugWithIntention(pkgLogger.IntentionSkip, "Focus changed during run", "uri", target.URI)
		outcome.Status = StatusSuperseded
		return outcome, nil
	}

	written, err := result.Replacement.Apply(target.Text)
	if err != nil {
		return outcome, err
	}
	c.remember(target.URI, written)
	if err := c.editor.ApplyReplacement(ctx, target.URI, result.Replacement); err != nil {
		c.forget(target.URI)
		return outcome, errors.Wrapf(err, "failed to update %s", target.URI)
	}

	c.logger.InfoWithIntention(pkgLogger.IntentionInject, "Injected context",
		"uri", target.URI, "chunks", len(result.Chunks))
	outcome.Status = StatusApplied
	return outcome, nil
}

func (c *Coordinator) remember(uri, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastWrite[uri] = sha256.Sum256([]byte(text))
}

func (c *Coordinator) forget(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastWrite, uri)
}

// isEcho consumes the fingerprint of our last write to uri when text matches it
func (c *Coordinator) isEcho(uri, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum, ok := c.lastWrite[uri]
	if !ok {
		return false
	}
	delete(c.lastWrite, uri)
	return sum == sha256.Sum256([]byte(text))
}
