package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/fpt/auto-context/internal/infra"
	"github.com/fpt/auto-context/internal/trigger"
)

// terminalWidth returns the stdout width, or 80 when stdout is not a terminal
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// WriteBanner writes the interactive-mode header, centered for the terminal
func WriteBanner(w io.Writer, workingDir string, colored bool) {
	if w == nil {
		return
	}
	width := terminalWidth()
	title := "AUTO-CONTEXT"
	indent := 0
	if width > displayWidth(title) {
		indent = (width - displayWidth(title)) / 2
	}
	if colored {
		title = titleStyle.Render(title)
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", indent), title)
	fmt.Fprintf(w, "📂 Working directory: %s\n", workingDir)
	fmt.Fprintln(w, strings.Repeat("=", min(width, 60)))
}

// WriteOutcome writes a one-line summary of a trigger outcome
func WriteOutcome(w io.Writer, out trigger.Outcome) {
	if w == nil {
		return
	}
	switch out.Status {
	case trigger.StatusApplied:
		fmt.Fprintf(w, "📌 Injected %d chunk(s) into %s\n", len(out.Result.Chunks), out.Target)
	case trigger.StatusDryRun:
		fmt.Fprintf(w, "👁️ Would inject %d chunk(s) into %s\n", len(out.Result.Chunks), out.Target)
	case trigger.StatusUnchanged:
		fmt.Fprintf(w, "✅ %s is up to date\n", out.Target)
	case trigger.StatusNoTarget:
		fmt.Fprintln(w, "⚠️ No active buffer. Use /focus first.")
	case trigger.StatusUnsupported:
		fmt.Fprintf(w, "⏭️ %s: language not eligible for context injection\n", out.Target)
	default:
		fmt.Fprintf(w, "⏭️ %s: %s\n", out.Target, out.Status)
	}
}

// WriteBufferList lists open buffers, marking the active one
func WriteBufferList(w io.Writer, session *infra.FileSession) {
	uris := session.OpenURIs()
	if len(uris) == 0 {
		fmt.Fprintln(w, "📭 No open buffers. Use /open <path>.")
		return
	}
	width := terminalWidth()
	active := session.ActiveURI()
	for i, uri := range uris {
		mark := " "
		if uri == active {
			mark = "*"
		}
		label := displayName(session, uri)
		fmt.Fprintf(w, "%s %2d  %s\n", mark, i+1, truncate(label, width-7))
	}
}

// WriteBlockPreview prints the aggregate block a dry run would write
func WriteBlockPreview(w io.Writer, out trigger.Outcome) {
	WriteOutcome(w, out)
	if out.Status != trigger.StatusDryRun && out.Status != trigger.StatusUnchanged {
		return
	}
	block := out.Result.Block()
	if block == "" {
		fmt.Fprintln(w, "(empty block)")
		return
	}
	rule := strings.Repeat("-", min(terminalWidth(), 60))
	fmt.Fprintln(w, rule)
	fmt.Fprint(w, block)
	fmt.Fprintln(w, rule)
}

// displayName shows file buffers relative to the working directory
func displayName(session *infra.FileSession, uri string) string {
	path, ok := session.PathFor(uri)
	if !ok {
		return uri
	}
	if rel, ok := strings.CutPrefix(path, session.WorkingDir()+string(os.PathSeparator)); ok {
		return rel
	}
	return path
}

// displayWidth returns the number of terminal cells s occupies
func displayWidth(s string) int { return runewidth.StringWidth(s) }

// truncate shortens s to width cells, keeping the tail
func truncate(s string, width int) string {
	if width <= 1 || displayWidth(s) <= width {
		return s
	}
	r := []rune(s)
	used := 1 // ellipsis
	i := len(r)
	for i > 0 && used+runewidth.RuneWidth(r[i-1]) <= width {
		i--
		used += runewidth.RuneWidth(r[i])
	}
	return "…" + string(r[i:])
}
