package infra

import (
	"path/filepath"
	"strings"
)

// PlainTextLanguage is reported for files with an unknown extension
const PlainTextLanguage = "plaintext"

var extensionLanguages = map[string]string{
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascriptreact",
	".ts":    "typescript",
	".mts":   "typescript",
	".cts":   "typescript",
	".tsx":   "typescriptreact",
	".scss":  "scss",
	".less":  "less",
	".go":    "go",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rs":    "rust",
	".swift": "swift",
	".kt":    "kotlin",
	".php":   "php",
	".py":    "python",
	".rb":    "ruby",
	".lua":   "lua",
	".sql":   "sql",
}

// LanguageForPath guesses the editor language id from a file extension
func LanguageForPath(path string) string {
	if id, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return PlainTextLanguage
}
