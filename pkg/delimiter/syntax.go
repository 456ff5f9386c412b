// Package delimiter resolves the comment syntax of a language and builds the
// pattern matchers used to find context markers and injected chunks.
package delimiter

import "strings"

// DefaultLanguage is used whenever a language id is unknown or empty
const DefaultLanguage = "javascript"

// CommentSyntax is the comment vocabulary of one language
type CommentSyntax struct {
	Line       string `json:"line" yaml:"line" toml:"line"`
	BlockStart string `json:"block_start" yaml:"block_start" toml:"block_start"`
	BlockEnd   string `json:"block_end" yaml:"block_end" toml:"block_end"`
}

// complete fills empty fields from fallback
func (c CommentSyntax) complete(fallback CommentSyntax) CommentSyntax {
	if strings.TrimSpace(c.Line) == "" {
		c.Line = fallback.Line
	}
	if strings.TrimSpace(c.BlockStart) == "" {
		c.BlockStart = fallback.BlockStart
	}
	if strings.TrimSpace(c.BlockEnd) == "" {
		c.BlockEnd = fallback.BlockEnd
	}
	return c
}

// LanguageTable maps editor language ids to comment syntax
type LanguageTable map[string]CommentSyntax

var cStyle = CommentSyntax{Line: "//", BlockStart: "/*", BlockEnd: "*/"}

// DefaultLanguageTable returns a fresh copy of the built-in table
func DefaultLanguageTable() LanguageTable {
	return LanguageTable{
		"javascript":      cStyle,
		"javascriptreact": cStyle,
		"typescript":      cStyle,
		"typescriptreact": cStyle,
		"scss":            cStyle,
		"less":            cStyle,
		"go":              cStyle,
		"java":            cStyle,
		"c":               cStyle,
		"cpp":             cStyle,
		"csharp":          cStyle,
		"rust":            cStyle,
		"swift":           cStyle,
		"kotlin":          cStyle,
		"php":             cStyle,
		"python":          {Line: "#", BlockStart: `"""`, BlockEnd: `"""`},
		"ruby":            {Line: "#", BlockStart: "=begin", BlockEnd: "=end"},
		"lua":             {Line: "--", BlockStart: "--[[", BlockEnd: "]]"},
		"sql":             {Line: "--", BlockStart: "/*", BlockEnd: "*/"},
	}
}

// Merge returns a copy of t with overrides layered on top.
// Override entries with empty fields inherit them from t (or the default language).
func (t LanguageTable) Merge(overrides LanguageTable) LanguageTable {
	merged := make(LanguageTable, len(t)+len(overrides))
	for id, syntax := range t {
		merged[id] = syntax
	}
	for id, syntax := range overrides {
		base, ok := merged[id]
		if !ok {
			base = merged.Lookup(DefaultLanguage)
		}
		merged[id] = syntax.complete(base)
	}
	return merged
}

// Lookup returns the syntax for languageID, falling back to the default
// language and finally to C-style comments. The result never has empty fields.
func (t LanguageTable) Lookup(languageID string) CommentSyntax {
	fallback := cStyle
	if def, ok := t[DefaultLanguage]; ok {
		fallback = def.complete(cStyle)
	}
	if syntax, ok := t[languageID]; ok {
		return syntax.complete(fallback)
	}
	return fallback
}

// Has reports whether languageID has an explicit entry
func (t LanguageTable) Has(languageID string) bool {
	_, ok := t[languageID]
	return ok
}
