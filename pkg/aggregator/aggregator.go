// Package aggregator collects context fragments from open buffers and builds
// the replacement that injects them, one chunk per source buffer, at the top
// of the target buffer.
//
// The functions in this package perform no I/O and never fail: missing
// markers or missing previous blocks simply contribute nothing.
package aggregator

import (
	"strings"

	"github.com/fpt/auto-context/pkg/delimiter"
	"github.com/fpt/auto-context/pkg/editor"
)

// ChunkInfo describes one chunk of an aggregate block
type ChunkInfo struct {
	URI        string `json:"uri"`
	LanguageID string `json:"language_id"`
	Fragments  int    `json:"fragments"`
}

// Result is the outcome of one aggregation pass
type Result struct {
	Replacement editor.Replacement `json:"replacement"`
	Chunks      []ChunkInfo        `json:"chunks"`
}

// Block returns the aggregate block text
func (r Result) Block() string {
	return r.Replacement.NewText
}

// Aggregate scans candidates for context fragments and returns the
// replacement for the leading chunk region of target.
func Aggregate(candidates []editor.Buffer, target editor.Buffer, m *delimiter.MatcherSet) Result {
	return aggregate(candidates, target, m, func(editor.Buffer) *delimiter.MatcherSet { return m })
}

func aggregate(candidates []editor.Buffer, target editor.Buffer, m *delimiter.MatcherSet, extractor func(editor.Buffer) *delimiter.MatcherSet) Result {
	var chunks []string
	var infos []ChunkInfo

	for _, c := range SelectCandidates(candidates, target.URI) {
		cm := extractor(c)
		content, fragments := FilterContent(c.Text, cm)
		if cm != m {
			// fragments get wrapped in the target's block comment
			content = m.StripBlockComments(content)
		}
		if content == "" {
			continue
		}
		chunks = append(chunks, FormatChunk(content, c.URI, m))
		infos = append(infos, ChunkInfo{URI: c.URI, LanguageID: c.LanguageID, Fragments: fragments})
	}

	return Result{
		Replacement: editor.Replacement{
			RangeStart: 0,
			RangeEnd:   LeadingBlockEnd(target.Text, m),
			NewText:    Assemble(chunks),
		},
		Chunks: infos,
	}
}

// SelectCandidates keeps persisted buffers other than the target, dropping
// repeated URIs. Order of first appearance is preserved.
func SelectCandidates(buffers []editor.Buffer, targetURI string) []editor.Buffer {
	seen := make(map[string]struct{}, len(buffers))
	selected := make([]editor.Buffer, 0, len(buffers))
	for _, b := range buffers {
		if !b.IsPersisted() || b.URI == targetURI {
			continue
		}
		if _, dup := seen[b.URI]; dup {
			continue
		}
		seen[b.URI] = struct{}{}
		selected = append(selected, b)
	}
	return selected
}

// FilterContent extracts the context fragments of one buffer's text.
// Previously injected chunks are removed first so markers inside them are
// never harvested again. Each trimmed, non-empty fragment is followed by a
// blank line. When the text carries a context-all marker the whole cleaned
// text, without line comments, is the single fragment.
// The second return value is the number of fragments found.
func FilterContent(text string, m *delimiter.MatcherSet) (string, int) {
	cleaned := m.StripChunks(text)

	var b strings.Builder
	fragments := 0
	add := func(fragment string) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			return
		}
		b.WriteString(fragment)
		b.WriteString("\n\n")
		fragments++
	}

	if m.HasContextAll(cleaned) {
		add(m.StripLineComments(m.StripContextAll(cleaned)))
	} else {
		for _, p := range m.ContextPairs(cleaned) {
			interior, ok := m.ContextInterior(cleaned[p.Start:p.End])
			if !ok {
				continue
			}
			add(interior)
		}
	}

	return m.StripBlockComments(b.String()), fragments
}

// FormatChunk wraps content for one source buffer:
//
//	<line> CHUNK START
//	<line> file: <uri>
//	<block-start>
//	<content>
//	<block-end>
//	<line> CHUNK END
func FormatChunk(content, uri string, m *delimiter.MatcherSet) string {
	var b strings.Builder
	b.WriteString(m.MarkerLine(m.Markers.ChunkStart))
	b.WriteString("\n")
	b.WriteString(m.MarkerLine("file: " + uri))
	b.WriteString("\n")
	b.WriteString(m.Syntax.BlockStart)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(m.Syntax.BlockEnd)
	b.WriteString("\n")
	b.WriteString(m.MarkerLine(m.Markers.ChunkEnd))
	return b.String()
}

// Assemble joins chunks, each followed by a blank line
func Assemble(chunks []string) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	return b.String()
}

// LeadingBlockEnd returns the end offset of the injected region at the top of
// text. Chunk matches are counted from offset 0, each with the line break that
// follows it; counting stops at the first match not adjacent to the region, so
// a chunk-like block further down is never swallowed.
func LeadingBlockEnd(text string, m *delimiter.MatcherSet) int {
	end := 0
	for _, loc := range m.ChunkBlock.FindAllStringIndex(text, -1) {
		if loc[0] != end {
			break
		}
		end = loc[1] + lineBreakLen(text[loc[1]:])
	}
	return end
}

func lineBreakLen(s string) int {
	switch {
	case strings.HasPrefix(s, "\r\n"):
		return 2
	case strings.HasPrefix(s, "\n"):
		return 1
	default:
		return 0
	}
}
