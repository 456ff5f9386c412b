package infra

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/fpt/auto-context/internal/repository"
	"github.com/fpt/auto-context/pkg/editor"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// FileSession is an editing session whose buffers are files on disk plus
// in-memory untitled scratch buffers. File text is read fresh on every listing,
// so the session always reflects what is saved.
type FileSession struct {
	mu         sync.RWMutex
	fsRepo     repository.FilesystemRepository
	workingDir string
	open       []string          // buffer URIs in open order
	paths      map[string]string // file URI -> absolute path
	untitled   map[string]*editor.Buffer
	nextID     int
	active     string
	logger     *pkgLogger.Logger
}

// NewFileSession creates an empty session resolving relative paths against workingDir
func NewFileSession(fsRepo repository.FilesystemRepository, workingDir string) *FileSession {
	if workingDir == "" {
		workingDir = "."
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	return &FileSession{
		fsRepo:     fsRepo,
		workingDir: workingDir,
		paths:      make(map[string]string),
		untitled:   make(map[string]*editor.Buffer),
		logger:     pkgLogger.NewComponentLogger("file-session"),
	}
}

// FileURI converts an absolute path to a file:// URI
func FileURI(absPath string) string {
	return (&url.URL{Scheme: editor.SchemeFile, Path: filepath.ToSlash(absPath)}).String()
}

// WorkingDir returns the absolute directory relative paths resolve against
func (s *FileSession) WorkingDir() string {
	return s.workingDir
}

func (s *FileSession) absPath(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workingDir, path)
	}
	return filepath.Clean(path)
}

// Open adds a file buffer. Opening an already open file is a no-op.
func (s *FileSession) Open(ctx context.Context, path string) (string, error) {
	abs := s.absPath(path)
	regular, err := s.fsRepo.IsRegular(ctx, abs)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open %s", path)
	}
	if !regular {
		return "", errors.Errorf("cannot open %s: not a regular file", path)
	}

	uri := FileURI(abs)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[uri]; !ok {
		s.paths[uri] = abs
		s.open = append(s.open, uri)
		s.logger.DebugWithIntention(pkgLogger.IntentionSession, "Opened buffer", "uri", uri)
	}
	return uri, nil
}

// OpenUntitled adds an unsaved scratch buffer and returns its URI
func (s *FileSession) OpenUntitled(languageID, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	uri := fmt.Sprintf("%s:Untitled-%d", editor.SchemeUntitled, s.nextID)
	s.untitled[uri] = &editor.Buffer{URI: uri, Scheme: editor.SchemeUntitled, LanguageID: languageID, Text: text}
	s.open = append(s.open, uri)
	return uri
}

// Lookup maps a URI or a path (absolute or relative) to the URI of an open buffer
func (s *FileSession) Lookup(ref string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(ref)
}

func (s *FileSession) lookupLocked(ref string) (string, bool) {
	if _, ok := s.paths[ref]; ok {
		return ref, true
	}
	if _, ok := s.untitled[ref]; ok {
		return ref, true
	}
	if strings.Contains(ref, "://") {
		return "", false
	}
	uri := FileURI(s.absPath(ref))
	_, ok := s.paths[uri]
	return uri, ok
}

// Close removes a buffer; closing the active buffer leaves no active buffer
func (s *FileSession) Close(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri, ok := s.lookupLocked(ref)
	if !ok {
		return errors.Wrap(editor.ErrBufferNotFound, ref)
	}
	for i, u := range s.open {
		if u == uri {
			s.open = append(s.open[:i], s.open[i+1:]...)
			break
		}
	}
	delete(s.paths, uri)
	delete(s.untitled, uri)
	if s.active == uri {
		s.active = ""
	}
	return nil
}

// Focus makes an open buffer the active one
func (s *FileSession) Focus(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri, ok := s.lookupLocked(ref)
	if !ok {
		return errors.Wrap(editor.ErrBufferNotFound, ref)
	}
	s.active = uri
	return nil
}

// ActiveURI returns the focused buffer URI, or "" when nothing has focus
func (s *FileSession) ActiveURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// OpenURIs returns buffer URIs in open order
func (s *FileSession) OpenURIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.open...)
}

// PathFor returns the file path of a file buffer
func (s *FileSession) PathFor(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paths[uri]
	return p, ok
}

func (s *FileSession) read(ctx context.Context, uri string) (editor.Buffer, error) {
	s.mu.RLock()
	path, isFile := s.paths[uri]
	scratch := s.untitled[uri]
	s.mu.RUnlock()

	if scratch != nil {
		return *scratch, nil
	}
	if !isFile {
		return editor.Buffer{}, errors.Wrap(editor.ErrBufferNotFound, uri)
	}
	data, err := s.fsRepo.ReadFile(ctx, path)
	if err != nil {
		return editor.Buffer{}, errors.Wrapf(err, "failed to read %s", path)
	}
	return editor.Buffer{URI: uri, Scheme: editor.SchemeFile, LanguageID: LanguageForPath(path), Text: string(data)}, nil
}

// ListOpenBuffers snapshots every open buffer. Files that can no longer be
// read are skipped with a warning.
func (s *FileSession) ListOpenBuffers(ctx context.Context) ([]editor.Buffer, error) {
	uris := s.OpenURIs()
	buffers := make([]editor.Buffer, 0, len(uris))
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.read(ctx, uri)
		if err != nil {
			s.logger.Warn("Skipping unreadable buffer", "uri", uri, "error", err)
			continue
		}
		buffers = append(buffers, b)
	}
	return buffers, nil
}

// ActiveBuffer snapshots the focused buffer
func (s *FileSession) ActiveBuffer(ctx context.Context) (editor.Buffer, bool, error) {
	uri := s.ActiveURI()
	if uri == "" {
		return editor.Buffer{}, false, nil
	}
	b, err := s.read(ctx, uri)
	if err != nil {
		return editor.Buffer{}, false, err
	}
	return b, true, nil
}

// ApplyReplacement rewrites a buffer. File buffers are re-read so the range
// is checked against the text currently on disk.
func (s *FileSession) ApplyReplacement(ctx context.Context, uri string, r editor.Replacement) error {
	s.mu.Lock()
	scratch := s.untitled[uri]
	if scratch != nil {
		defer s.mu.Unlock()
		text, err := r.Apply(scratch.Text)
		if err != nil {
			return err
		}
		scratch.Text = text
		return nil
	}
	path, ok := s.paths[uri]
	s.mu.Unlock()
	if !ok {
		return errors.Wrap(editor.ErrBufferNotFound, uri)
	}

	info, err := s.fsRepo.Stat(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	data, err := s.fsRepo.ReadFile(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	text, err := r.Apply(string(data))
	if err != nil {
		return err
	}
	if err := s.fsRepo.WriteFile(ctx, path, []byte(text), info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Snapshot returns the persistable part of the session. Untitled buffers are not persisted.
func (s *FileSession) Snapshot() repository.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := repository.SessionState{Active: s.paths[s.active]}
	for _, uri := range s.open {
		if p, ok := s.paths[uri]; ok {
			state.Open = append(state.Open, p)
		}
	}
	return state
}

// Restore reopens the files of a saved state. Files that vanished are skipped.
func (s *FileSession) Restore(ctx context.Context, state repository.SessionState) {
	for _, p := range state.Open {
		if _, err := s.Open(ctx, p); err != nil {
			s.logger.Warn("Could not restore buffer", "path", p, "error", err)
		}
	}
	if state.Active != "" {
		if err := s.Focus(state.Active); err != nil {
			s.logger.Warn("Could not restore active buffer", "path", state.Active, "error", err)
		}
	}
}
