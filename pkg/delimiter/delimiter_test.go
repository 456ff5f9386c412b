package delimiter

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestLanguageTable_LookupFallsBack(t *testing.T) {
	table := DefaultLanguageTable()

	if got := table.Lookup("python"); got.Line != "#" || got.BlockStart != `"""` {
		t.Errorf("unexpected python syntax: %+v", got)
	}
	for _, id := range []string{"", "brainfuck"} {
		got := table.Lookup(id)
		if got != table[DefaultLanguage] {
			t.Errorf("expected default syntax for %q, got %+v", id, got)
		}
	}
}

func TestLanguageTable_LookupNeverEmpty(t *testing.T) {
	table := LanguageTable{"yaml": {Line: "#"}}

	got := table.Lookup("yaml")
	if got.Line != "#" {
		t.Errorf("expected line prefix '#', got %q", got.Line)
	}
	if got.BlockStart == "" || got.BlockEnd == "" {
		t.Errorf("block delimiters must be filled from fallback, got %+v", got)
	}
	if fallback := table.Lookup("unknown"); fallback != cStyle {
		t.Errorf("expected C-style fallback without a default entry, got %+v", fallback)
	}
}

func TestLanguageTable_Merge(t *testing.T) {
	base := DefaultLanguageTable()
	merged := base.Merge(LanguageTable{
		"haskell": {Line: "--", BlockStart: "{-", BlockEnd: "-}"},
		"python":  {BlockStart: "'''", BlockEnd: "'''"},
	})

	if got := merged.Lookup("haskell"); got.BlockStart != "{-" {
		t.Errorf("expected haskell override, got %+v", got)
	}
	if got := merged.Lookup("python"); got.Line != "#" || got.BlockStart != "'''" {
		t.Errorf("expected partial python override to keep '#', got %+v", got)
	}
	if base.Has("haskell") {
		t.Error("Merge must not mutate the receiver")
	}
}

func TestMarkers_Validate(t *testing.T) {
	if err := DefaultMarkers().Validate(); err != nil {
		t.Fatalf("default markers should validate: %v", err)
	}

	bad := []Markers{
		{ChunkStart: "", ChunkEnd: "END", Context: "CTX", ContextAll: "ALL"},
		{ChunkStart: "X", ChunkEnd: "X", Context: "CTX", ContextAll: "ALL"},
		{ChunkStart: "S", ChunkEnd: "E", Context: "CTX", ContextAll: "CTX"},
		{ChunkStart: "S", ChunkEnd: "E", Context: "S", ContextAll: "ALL"},
		{ChunkStart: "S\nT", ChunkEnd: "E", Context: "CTX", ContextAll: "ALL"},
		{ChunkStart: "S", ChunkEnd: "E", Context: "CTX", ContextAll: "CTX ALL"},
		{ChunkStart: "S", ChunkEnd: "E", Context: "ALL CTX", ContextAll: "ALL"},
	}
	for i, m := range bad {
		if err := m.Validate(); !errors.Is(err, ErrInvalidMarkers) {
			t.Errorf("case %d: expected ErrInvalidMarkers, got %v", i, err)
		}
	}
}

func TestResolve_EmptyMarkersUseDefaults(t *testing.T) {
	m := Resolve("typescript", Markers{})
	if m.Markers != DefaultMarkers() {
		t.Errorf("expected default markers, got %+v", m.Markers)
	}
	if got := m.MarkerLine(m.Markers.ChunkStart); got != "// CHUNK START" {
		t.Errorf("unexpected marker line %q", got)
	}
}

func TestMatcherSet_ContextPairs(t *testing.T) {
	m := Resolve("typescript", DefaultMarkers())

	t.Run("PairsInOrder", func(t *testing.T) {
		text := "// [COPILOT CONTEXT]\na\n// [COPILOT CONTEXT]\nx\n// [COPILOT CONTEXT]\nb\n// [COPILOT CONTEXT]\n"
		pairs := m.ContextPairs(text)
		if len(pairs) != 2 {
			t.Fatalf("expected 2 pairs, got %d", len(pairs))
		}
		if got := strings.TrimSpace(text[pairs[0].InteriorStart:pairs[0].InteriorEnd]); got != "a" {
			t.Errorf("expected first interior 'a', got %q", got)
		}
		if got := strings.TrimSpace(text[pairs[1].InteriorStart:pairs[1].InteriorEnd]); got != "b" {
			t.Errorf("expected second interior 'b', got %q", got)
		}
	})

	t.Run("OddTrailingMarkerDropped", func(t *testing.T) {
		text := "// [COPILOT CONTEXT]\na\n// [COPILOT CONTEXT]\ndangling\n// [COPILOT CONTEXT]\n"
		if pairs := m.ContextPairs(text); len(pairs) != 1 {
			t.Errorf("expected 1 pair, got %d", len(pairs))
		}
	})

	t.Run("SingleMarkerYieldsNothing", func(t *testing.T) {
		if pairs := m.ContextPairs("// [COPILOT CONTEXT]\nalone\n"); len(pairs) != 0 {
			t.Errorf("expected no pairs, got %d", len(pairs))
		}
	})

	t.Run("ContextAllLineIsNotAContextMarker", func(t *testing.T) {
		if pairs := m.ContextPairs("// [COPILOT CONTEXT ALL]\n// [COPILOT CONTEXT ALL]\n"); len(pairs) != 0 {
			t.Errorf("context-all lines must not pair as context markers, got %d", len(pairs))
		}
	})
}

func TestMatcherSet_ContextInterior(t *testing.T) {
	m := Resolve("javascript", DefaultMarkers())
	text := "before // [COPILOT CONTEXT]\n hello \n// [COPILOT CONTEXT] after"
	pairs := m.ContextPairs(text)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}

	interior, ok := m.ContextInterior(text[pairs[0].Start:pairs[0].End])
	if !ok {
		t.Fatal("expected single-shot match")
	}
	if interior != "\n hello \n" {
		t.Errorf("unexpected interior %q", interior)
	}
	if _, ok := m.ContextInterior("no markers"); ok {
		t.Error("expected no match without markers")
	}
}

func TestMatcherSet_ChunkBlocks(t *testing.T) {
	m := Resolve("go", DefaultMarkers())
	chunk := "// CHUNK START\n// file: file:///a.go\n/*\nx\n*/\n// CHUNK END\n"

	if got := m.StripChunks(chunk + "\nrest"); got != "\nrest" {
		t.Errorf("StripChunks: unexpected %q", got)
	}
	if got := m.StripChunksTrailingBlank(chunk + "\nrest"); got != "rest" {
		t.Errorf("StripChunksTrailingBlank: unexpected %q", got)
	}
	if got := m.StripChunks(chunk + chunk + "rest"); got != "rest" {
		t.Errorf("non-greedy body should match each chunk, got %q", got)
	}
	if got := m.StripChunks("// CHUNK START\nunterminated"); got != "// CHUNK START\nunterminated" {
		t.Errorf("unterminated chunk should be left alone, got %q", got)
	}
	if got := m.StripChunks(strings.ReplaceAll(chunk, "\n", "\r\n")); got != "" {
		t.Errorf("CRLF chunk should be removed, got %q", got)
	}
}

func TestMatcherSet_QuotesDelimiters(t *testing.T) {
	m := NewResolver(Markers{ChunkStart: "<<+>>", ChunkEnd: "<<->>", Context: "(ctx)", ContextAll: "(all)"}, nil).Resolve("lua")

	if got := m.StripBlockComments("--[[ a ]] b"); got != " a  b" {
		t.Errorf("unexpected block strip %q", got)
	}
	text := "-- (ctx)\nv\n-- (ctx)\n"
	if pairs := m.ContextPairs(text); len(pairs) != 1 {
		t.Errorf("regex metacharacters in markers must be literal, got %d pairs", len(pairs))
	}
	if pairs := m.ContextPairs("-- ctx\nv\n-- ctx\n"); len(pairs) != 0 {
		t.Errorf("parentheses must not act as a group, got %d pairs", len(pairs))
	}
}

func TestMatcherSet_StripLineComments(t *testing.T) {
	m := Resolve("python", DefaultMarkers())
	got := m.StripLineComments("x = 1 # note\n# whole line\ny = 2\r\n# crlf\r\n")
	want := "x = 1 \n\ny = 2\r\n\r\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestMatcherSet_ContextAll(t *testing.T) {
	m := Resolve("typescript", DefaultMarkers())
	text := "  // [COPILOT CONTEXT ALL]\nexport const a = 1\n"

	if !m.HasContextAll(text) {
		t.Fatal("expected context-all marker to be detected")
	}
	if got := m.StripContextAll(text); got != "export const a = 1\n" {
		t.Errorf("unexpected strip result %q", got)
	}
	if m.HasContextAll("// [COPILOT CONTEXT]\n") {
		t.Error("plain context marker is not a context-all marker")
	}
}
