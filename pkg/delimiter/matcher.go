package delimiter

import (
	"regexp"
)

// MatcherSet bundles the compiled patterns for one resolved language
type MatcherSet struct {
	LanguageID string
	Syntax     CommentSyntax
	Markers    Markers

	// ContextMarker matches a single context delimiter occurrence
	ContextMarker *regexp.Regexp
	// ContextBlock matches the shortest span between two context delimiters,
	// capturing the interior. Used single-shot on an already paired span.
	ContextBlock *regexp.Regexp
	// ContextAll matches a whole-buffer context marker line with its line break
	ContextAll *regexp.Regexp
	// ChunkBlock matches an injected chunk through its end line break
	ChunkBlock *regexp.Regexp
	// ChunkBlockTrailingBlank also consumes one following blank line
	ChunkBlockTrailingBlank *regexp.Regexp
	BlockCommentStart       *regexp.Regexp
	BlockCommentEnd         *regexp.Regexp
	// LineComment matches a line comment from its prefix to the end of line
	LineComment *regexp.Regexp
}

// Pair locates one matched pair of context delimiters in a text.
// Start/End bound the whole span including both delimiters;
// InteriorStart/InteriorEnd bound the text between them.
type Pair struct {
	Start, End                 int
	InteriorStart, InteriorEnd int
}

// Resolver builds MatcherSets from a marker configuration and language table
type Resolver struct {
	markers Markers
	table   LanguageTable
}

// NewResolver creates a resolver. Empty markers are filled with defaults and a
// nil table means DefaultLanguageTable.
func NewResolver(markers Markers, table LanguageTable) *Resolver {
	if table == nil {
		table = DefaultLanguageTable()
	}
	return &Resolver{markers: markers.WithDefaults(), table: table}
}

// Resolve builds the matchers for languageID
func (r *Resolver) Resolve(languageID string) *MatcherSet {
	return build(languageID, r.table.Lookup(languageID), r.markers)
}

// Syntax returns the resolved comment syntax for languageID
func (r *Resolver) Syntax(languageID string) CommentSyntax {
	return r.table.Lookup(languageID)
}

// Markers returns the marker tokens the resolver was built with
func (r *Resolver) Markers() Markers {
	return r.markers
}

// Resolve builds matchers for languageID from the built-in language table
func Resolve(languageID string, markers Markers) *MatcherSet {
	return NewResolver(markers, nil).Resolve(languageID)
}

func build(languageID string, syntax CommentSyntax, markers Markers) *MatcherSet {
	line := regexp.QuoteMeta(syntax.Line)
	mark := func(token string) string {
		return line + " " + regexp.QuoteMeta(token)
	}
	chunk := `(?s)` + mark(markers.ChunkStart) + `.*?` + mark(markers.ChunkEnd) + `\r?\n`

	return &MatcherSet{
		LanguageID:              languageID,
		Syntax:                  syntax,
		Markers:                 markers,
		ContextMarker:           regexp.MustCompile(mark(markers.Context)),
		ContextBlock:            regexp.MustCompile(`(?s)` + mark(markers.Context) + `(.*?)` + mark(markers.Context)),
		ContextAll:              regexp.MustCompile(`[ \t]*` + mark(markers.ContextAll) + `[ \t]*(?:\r?\n|$)`),
		ChunkBlock:              regexp.MustCompile(chunk),
		ChunkBlockTrailingBlank: regexp.MustCompile(chunk + `(?:\r?\n)?`),
		BlockCommentStart:       regexp.MustCompile(regexp.QuoteMeta(syntax.BlockStart)),
		BlockCommentEnd:         regexp.MustCompile(regexp.QuoteMeta(syntax.BlockEnd)),
		LineComment:             regexp.MustCompile(line + `[^\r\n]*`),
	}
}

// MarkerLine renders "<line-comment> <token>"
func (m *MatcherSet) MarkerLine(token string) string {
	return m.Syntax.Line + " " + token
}

// ContextPairs finds every context delimiter occurrence and pairs them in
// order: first with second, third with fourth. An odd trailing occurrence
// is left unmatched.
func (m *MatcherSet) ContextPairs(text string) []Pair {
	locs := m.ContextMarker.FindAllStringIndex(text, -1)
	pairs := make([]Pair, 0, len(locs)/2)
	for i := 0; i+1 < len(locs); i += 2 {
		open, closing := locs[i], locs[i+1]
		pairs = append(pairs, Pair{
			Start:         open[0],
			End:           closing[1],
			InteriorStart: open[1],
			InteriorEnd:   closing[0],
		})
	}
	return pairs
}

// ContextInterior captures the text between the delimiters of a single
// matched span such as text[p.Start:p.End].
func (m *MatcherSet) ContextInterior(match string) (string, bool) {
	sub := m.ContextBlock.FindStringSubmatch(match)
	if sub == nil {
		return "", false
	}
	return sub[1], true
}

// HasContextAll reports whether text carries a whole-buffer context marker
func (m *MatcherSet) HasContextAll(text string) bool {
	return m.ContextAll.MatchString(text)
}

// StripContextAll removes whole-buffer context marker lines
func (m *MatcherSet) StripContextAll(text string) string {
	return m.ContextAll.ReplaceAllLiteralString(text, "")
}

// StripChunks removes every injected chunk
func (m *MatcherSet) StripChunks(text string) string {
	return m.ChunkBlock.ReplaceAllLiteralString(text, "")
}

// StripChunksTrailingBlank removes every injected chunk and the blank line after it
func (m *MatcherSet) StripChunksTrailingBlank(text string) string {
	return m.ChunkBlockTrailingBlank.ReplaceAllLiteralString(text, "")
}

// StripBlockComments removes literal block comment delimiters
func (m *MatcherSet) StripBlockComments(text string) string {
	text = m.BlockCommentStart.ReplaceAllLiteralString(text, "")
	return m.BlockCommentEnd.ReplaceAllLiteralString(text, "")
}

// StripLineComments removes line comments, keeping the line breaks
func (m *MatcherSet) StripLineComments(text string) string {
	return m.LineComment.ReplaceAllLiteralString(text, "")
}
