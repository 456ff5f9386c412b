package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpt/auto-context/internal/infra"
	"github.com/fpt/auto-context/internal/trigger"
	"github.com/fpt/auto-context/pkg/aggregator"
)

const marker = "// [COPILOT CONTEXT]"

func setupWorkspace(t *testing.T, dryRun bool) (*Workspace, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.ts"),
		[]byte(marker+"\nexport interface User { id: string }\n"+marker+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.ts"), []byte("const u: User = load();\n"), 0644))

	var out bytes.Buffer
	w := NewWorkspace(context.Background(), aggregator.NewEngine(nil, nil), infra.NewOSFilesystemRepository(),
		WorkspaceOptions{WorkingDir: dir, DryRun: dryRun, StateRepo: infra.NewInMemorySessionStateRepository(), Out: &out})
	return w, dir, &out
}

func TestWorkspaceFocusInjects(t *testing.T) {
	w, dir, _ := setupWorkspace(t, false)
	ctx := context.Background()
	require.NoError(t, w.Open(ctx, "types.ts", "main.ts"))

	out, err := w.Focus(ctx, "main.ts")
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusApplied, out.Status)

	data, err := os.ReadFile(filepath.Join(dir, "main.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "export interface User { id: string }")
	assert.True(t, strings.HasSuffix(string(data), "const u: User = load();\n"))

	out, err = w.Inject(ctx)
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusUnchanged, out.Status)
}

func TestWorkspaceDryRunLeavesFiles(t *testing.T) {
	w, dir, _ := setupWorkspace(t, true)
	ctx := context.Background()
	require.NoError(t, w.Open(ctx, "types.ts", "main.ts"))

	out, err := w.Focus(ctx, "main.ts")
	require.NoError(t, err)
	assert.Equal(t, trigger.StatusDryRun, out.Status)

	data, _ := os.ReadFile(filepath.Join(dir, "main.ts"))
	assert.Equal(t, "const u: User = load();\n", string(data))
}

func TestWorkspacePersistsState(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte("a"), 0644))
	repo := infra.NewInMemorySessionStateRepository()
	engine := aggregator.NewEngine(nil, nil)
	ctx := context.Background()

	w := NewWorkspace(ctx, engine, infra.NewOSFilesystemRepository(), WorkspaceOptions{WorkingDir: dir, StateRepo: repo, Out: &bytes.Buffer{}})
	require.NoError(t, w.Open(ctx, "a.ts"))
	_, err := w.Focus(ctx, "a.ts")
	require.NoError(t, err)
	w.Shutdown()

	restored := NewWorkspace(ctx, engine, infra.NewOSFilesystemRepository(), WorkspaceOptions{WorkingDir: dir, StateRepo: repo, Out: &bytes.Buffer{}})
	assert.Equal(t, []string{infra.FileURI(filepath.Join(dir, "a.ts"))}, restored.Session().OpenURIs())
	assert.Equal(t, infra.FileURI(filepath.Join(dir, "a.ts")), restored.Session().ActiveURI())
}

func TestWorkspaceWatchRefreshesOnTargetEdit(t *testing.T) {
	w, dir, _ := setupWorkspace(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Open(ctx, "types.ts", "main.ts"))
	_, err := w.Focus(ctx, "main.ts")
	require.NoError(t, err)
	require.NoError(t, w.Watch(ctx, 30*time.Millisecond))
	defer w.Shutdown()

	// change the source, then edit the target as a user would
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.ts"),
		[]byte(marker+"\nexport interface User { id: number }\n"+marker+"\n"), 0644))
	target := filepath.Join(dir, "main.ts")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, append(data, "console.log(u);\n"...), 0644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(target)
		return err == nil && strings.Contains(string(data), "id: number")
	}, 3*time.Second, 20*time.Millisecond)

	data, _ = os.ReadFile(target)
	assert.NotContains(t, string(data), "id: string")
	assert.Contains(t, string(data), "console.log(u);")
}
