package infra

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/fpt/auto-context/pkg/editor"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0640); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileSessionOpenAndList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ts", "const a = 1;\n")
	writeFile(t, dir, "b.py", "x = 1\n")

	s := NewFileSession(NewOSFilesystemRepository(), dir)
	ctx := context.Background()
	uriA, err := s.Open(ctx, "a.ts")
	if err != nil {
		t.Fatalf("open a.ts: %v", err)
	}
	if _, err := s.Open(ctx, filepath.Join(dir, "b.py")); err != nil {
		t.Fatalf("open b.py: %v", err)
	}
	// reopening is a no-op
	if again, _ := s.Open(ctx, "a.ts"); again != uriA {
		t.Errorf("reopen returned %q, want %q", again, uriA)
	}

	buffers, err := s.ListOpenBuffers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(buffers) != 2 {
		t.Fatalf("got %d buffers, want 2", len(buffers))
	}
	if buffers[0].LanguageID != "typescript" || buffers[1].LanguageID != "python" {
		t.Errorf("languages = %q, %q", buffers[0].LanguageID, buffers[1].LanguageID)
	}
	if !buffers[0].IsPersisted() {
		t.Error("file buffer should be persisted")
	}
	if buffers[0].URI != FileURI(filepath.Join(dir, "a.ts")) {
		t.Errorf("uri = %q", buffers[0].URI)
	}
}

func TestFileSessionOpenRejectsDirectories(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSession(NewOSFilesystemRepository(), dir)
	if _, err := s.Open(context.Background(), dir); err == nil {
		t.Error("opening a directory should fail")
	}
	if _, err := s.Open(context.Background(), "missing.ts"); err == nil {
		t.Error("opening a missing file should fail")
	}
}

func TestFileSessionFocusAndClose(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ts", "a")
	s := NewFileSession(NewOSFilesystemRepository(), dir)
	ctx := context.Background()
	uri, _ := s.Open(ctx, "a.ts")

	if _, ok, _ := s.ActiveBuffer(ctx); ok {
		t.Error("nothing should be active yet")
	}
	if err := s.Focus("a.ts"); err != nil {
		t.Fatalf("focus: %v", err)
	}
	b, ok, err := s.ActiveBuffer(ctx)
	if err != nil || !ok || b.URI != uri {
		t.Fatalf("active = %v %v %v", b.URI, ok, err)
	}
	if err := s.Focus("other.ts"); !errors.Is(err, editor.ErrBufferNotFound) {
		t.Errorf("focus unknown: %v", err)
	}
	if err := s.Close(uri); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.ActiveURI() != "" {
		t.Error("closing the active buffer should clear focus")
	}
	if len(s.OpenURIs()) != 0 {
		t.Error("buffer still open")
	}
}

func TestFileSessionSkipsVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	gone := writeFile(t, dir, "gone.ts", "x")
	writeFile(t, dir, "kept.ts", "y")
	s := NewFileSession(NewOSFilesystemRepository(), dir)
	ctx := context.Background()
	s.Open(ctx, "gone.ts")
	s.Open(ctx, "kept.ts")
	os.Remove(gone)

	buffers, err := s.ListOpenBuffers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(buffers) != 1 || buffers[0].Text != "y" {
		t.Errorf("buffers = %+v", buffers)
	}
}

func TestFileSessionApplyReplacementPreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.ts", "body\n")
	s := NewFileSession(NewOSFilesystemRepository(), dir)
	ctx := context.Background()
	uri, _ := s.Open(ctx, "a.ts")

	err := s.ApplyReplacement(ctx, uri, editor.Replacement{RangeStart: 0, RangeEnd: 0, NewText: "head\n"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "head\nbody\n" {
		t.Errorf("text = %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	err = s.ApplyReplacement(ctx, uri, editor.Replacement{RangeStart: 0, RangeEnd: 100})
	if !errors.Is(err, editor.ErrRangeOutOfDate) {
		t.Errorf("stale range: %v", err)
	}
}

func TestFileSessionUntitledBuffers(t *testing.T) {
	s := NewFileSession(NewOSFilesystemRepository(), t.TempDir())
	ctx := context.Background()
	uri := s.OpenUntitled("typescript", "scratch")
	if err := s.Focus(uri); err != nil {
		t.Fatalf("focus: %v", err)
	}
	b, ok, _ := s.ActiveBuffer(ctx)
	if !ok || b.IsPersisted() || b.Text != "scratch" {
		t.Fatalf("active = %+v", b)
	}
	if err := s.ApplyReplacement(ctx, uri, editor.Replacement{NewText: "top\n"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	b, _, _ = s.ActiveBuffer(ctx)
	if b.Text != "top\nscratch" {
		t.Errorf("text = %q", b.Text)
	}
	if len(s.Snapshot().Open) != 0 {
		t.Error("untitled buffers must not be persisted")
	}
}

func TestFileSessionSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.ts", "a")
	b := writeFile(t, dir, "b.ts", "b")
	ctx := context.Background()

	s := NewFileSession(NewOSFilesystemRepository(), dir)
	s.Open(ctx, a)
	s.Open(ctx, b)
	s.Focus(b)

	repo := NewFileSessionStateRepository(filepath.Join(dir, "state", "session.json"))
	if err := repo.Save(s.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	os.Remove(a)

	state, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	restored := NewFileSession(NewOSFilesystemRepository(), dir)
	restored.Restore(ctx, state)
	if got := restored.OpenURIs(); len(got) != 1 || got[0] != FileURI(b) {
		t.Errorf("open = %v", got)
	}
	if restored.ActiveURI() != FileURI(b) {
		t.Errorf("active = %q", restored.ActiveURI())
	}
}

func TestSessionStateMissingFile(t *testing.T) {
	repo := NewFileSessionStateRepository(filepath.Join(t.TempDir(), "none.json"))
	state, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Open) != 0 || state.Active != "" {
		t.Errorf("state = %+v", state)
	}
}

func TestLanguageForPath(t *testing.T) {
	tests := map[string]string{
		"a.ts":       "typescript",
		"A.TSX":      "typescriptreact",
		"x.mjs":      "javascript",
		"style.scss": "scss",
		"main.go":    "go",
		"README":     PlainTextLanguage,
		"notes.txt":  PlainTextLanguage,
	}
	for path, want := range tests {
		if got := LanguageForPath(path); got != want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestMemorySession(t *testing.T) {
	s := NewMemorySession(
		editor.Buffer{URI: "file:///a.ts", LanguageID: "typescript", Text: "a"},
		editor.Buffer{URI: "untitled:1", Scheme: editor.SchemeUntitled, LanguageID: "typescript"},
	)
	ctx := context.Background()
	buffers, _ := s.ListOpenBuffers(ctx)
	if len(buffers) != 2 || !buffers[0].IsPersisted() || buffers[1].IsPersisted() {
		t.Fatalf("buffers = %+v", buffers)
	}
	if err := s.SetActive("file:///missing.ts"); !errors.Is(err, editor.ErrBufferNotFound) {
		t.Errorf("set unknown active: %v", err)
	}
	s.SetActive("file:///a.ts")
	if err := s.ApplyReplacement(ctx, "file:///a.ts", editor.Replacement{NewText: "x"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if text, _ := s.Text("file:///a.ts"); text != "xa" {
		t.Errorf("text = %q", text)
	}
	if s.Writes() != 1 {
		t.Errorf("writes = %d", s.Writes())
	}
}

func TestMemorySessionKeepsFirstDuplicate(t *testing.T) {
	s := NewMemorySession(
		editor.Buffer{URI: "file:///a.ts", LanguageID: "typescript", Text: "FIRST"},
		editor.Buffer{URI: "file:///b.ts", LanguageID: "typescript", Text: "b"},
		editor.Buffer{URI: "file:///a.ts", LanguageID: "typescript", Text: "SECOND"},
	)
	buffers, _ := s.ListOpenBuffers(context.Background())
	if len(buffers) != 2 || buffers[0].URI != "file:///a.ts" || buffers[1].URI != "file:///b.ts" {
		t.Fatalf("buffers = %+v", buffers)
	}
	if text, _ := s.Text("file:///a.ts"); text != "FIRST" {
		t.Errorf("text = %q, want first buffer", text)
	}

	s.Add(editor.Buffer{URI: "file:///a.ts", LanguageID: "typescript", Text: "TARGET"})
	if text, _ := s.Text("file:///a.ts"); text != "TARGET" {
		t.Errorf("explicit add should replace, got %q", text)
	}
}
