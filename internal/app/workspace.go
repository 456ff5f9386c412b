package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/fpt/auto-context/internal/infra"
	"github.com/fpt/auto-context/internal/repository"
	"github.com/fpt/auto-context/internal/trigger"
	"github.com/fpt/auto-context/pkg/aggregator"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// Workspace ties a file-backed editing session to the trigger coordinator.
// It is what the CLI and the REPL drive.
type Workspace struct {
	session     *infra.FileSession
	coordinator *trigger.Coordinator
	preview     *trigger.Coordinator
	stateRepo   repository.SessionStateRepository
	watcher     *trigger.Watcher
	out         io.Writer
	logger      *pkgLogger.Logger
}

// WorkspaceOptions configures NewWorkspace
type WorkspaceOptions struct {
	WorkingDir string
	DryRun     bool
	// StateRepo persists open buffers between runs; nil disables persistence
	StateRepo repository.SessionStateRepository
	Out       io.Writer
	Logger    *pkgLogger.Logger
}

// NewWorkspace creates a workspace. Saved state is restored when a state repository is given.
func NewWorkspace(ctx context.Context, engine *aggregator.Engine, fsRepo repository.FilesystemRepository, opts WorkspaceOptions) *Workspace {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = pkgLogger.NewComponentLogger("workspace")
	}

	session := infra.NewFileSession(fsRepo, opts.WorkingDir)
	coordinator := trigger.NewCoordinator(engine, session, trigger.WithDryRun(opts.DryRun))
	w := &Workspace{
		session:     session,
		coordinator: coordinator,
		preview:     trigger.NewCoordinator(engine, session, trigger.WithDryRun(true), trigger.WithSessionID(coordinator.SessionID())),
		stateRepo:   opts.StateRepo,
		out:         opts.Out,
		logger:      opts.Logger.WithSession(coordinator.SessionID()),
	}

	if w.stateRepo != nil {
		state, err := w.stateRepo.Load()
		if err != nil {
			w.logger.Warn("Failed to load session state", "error", err)
		} else if len(state.Open) > 0 {
			session.Restore(ctx, state)
			w.logger.DebugWithIntention(pkgLogger.IntentionSession, "Restored session",
				"buffers", len(session.OpenURIs()), "active", session.ActiveURI())
		}
	}
	return w
}

// Session exposes the underlying editing session
func (w *Workspace) Session() *infra.FileSession {
	return w.session
}

// OutWriter returns the writer command output goes to
func (w *Workspace) OutWriter() io.Writer {
	return w.out
}

// Open adds files to the session in order
func (w *Workspace) Open(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		uri, err := w.session.Open(ctx, p)
		if err != nil {
			return err
		}
		if w.watcher != nil {
			if path, ok := w.session.PathFor(uri); ok {
				if err := w.watcher.Track(path); err != nil {
					w.logger.Warn("Cannot watch file", "path", path, "error", err)
				}
			}
		}
	}
	w.saveState()
	return nil
}

// Close removes a buffer from the session
func (w *Workspace) Close(ref string) error {
	uri, ok := w.session.Lookup(ref)
	if !ok {
		return errors.Errorf("%s is not open", ref)
	}
	path, isFile := w.session.PathFor(uri)
	if err := w.session.Close(uri); err != nil {
		return err
	}
	if isFile && w.watcher != nil {
		w.watcher.Untrack(path)
	}
	w.saveState()
	return nil
}

// OpenUntitled adds a scratch buffer
func (w *Workspace) OpenUntitled(languageID string) string {
	return w.session.OpenUntitled(languageID, "")
}

// Focus makes ref the active buffer and injects context into it
func (w *Workspace) Focus(ctx context.Context, ref string) (trigger.Outcome, error) {
	if err := w.session.Focus(ref); err != nil {
		return trigger.Outcome{}, err
	}
	w.saveState()
	return w.coordinator.OnActiveBufferChanged(ctx)
}

// Inject refreshes the aggregate block of the active buffer
func (w *Workspace) Inject(ctx context.Context) (trigger.Outcome, error) {
	return w.coordinator.RunOnce(ctx)
}

// Preview computes the replacement for the active buffer without writing it
func (w *Workspace) Preview(ctx context.Context) (trigger.Outcome, error) {
	return w.preview.RunOnce(ctx)
}

// Watch starts reporting edits of open files to the coordinator until ctx ends
func (w *Workspace) Watch(ctx context.Context, debounce time.Duration) error {
	if w.watcher != nil {
		return nil
	}
	watcher, err := trigger.NewWatcher(debounce, w.onFileChanged)
	if err != nil {
		return err
	}
	for _, uri := range w.session.OpenURIs() {
		if path, ok := w.session.PathFor(uri); ok {
			if err := watcher.Track(path); err != nil {
				watcher.Close()
				return err
			}
		}
	}
	watcher.Start(ctx)
	w.watcher = watcher
	w.logger.InfoWithIntention(pkgLogger.IntentionWatch, "Watching open files", "files", len(w.session.OpenURIs()))
	return nil
}

func (w *Workspace) onFileChanged(ctx context.Context, path string) {
	out, err := w.coordinator.OnTextChanged(ctx, infra.FileURI(path))
	if err != nil {
		w.logger.ErrorWithIntention(pkgLogger.IntentionError, "Context refresh failed", "path", path, "error", err)
		return
	}
	if out.Wrote() {
		WriteOutcome(w.out, out)
	}
}

// Shutdown stops the watcher and persists the session
func (w *Workspace) Shutdown() {
	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("Failed to close watcher", "error", err)
		}
		w.watcher = nil
	}
	w.saveState()
}

func (w *Workspace) saveState() {
	if w.stateRepo == nil {
		return
	}
	if err := w.stateRepo.Save(w.session.Snapshot()); err != nil {
		w.logger.Warn("Failed to save session state", "error", err)
	}
}
