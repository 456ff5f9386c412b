package aggregator

import (
	"github.com/fpt/auto-context/pkg/delimiter"
	"github.com/fpt/auto-context/pkg/editor"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// DefaultSupportedLanguages are the target languages eligible for injection
var DefaultSupportedLanguages = []string{"javascript", "typescript", "typescriptreact", "javascriptreact", "scss"}

// Engine gates targets by language, resolves matchers and runs Aggregate
type Engine struct {
	resolver     *delimiter.Resolver
	supported    map[string]struct{}
	perCandidate bool
	logger       *pkgLogger.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithPerCandidateSyntax makes each candidate scanned with its own language's
// comment syntax instead of the target's.
func WithPerCandidateSyntax(enable bool) Option {
	return func(e *Engine) {
		e.perCandidate = enable
	}
}

// WithLogger sets the logger used for per-run diagnostics
func WithLogger(logger *pkgLogger.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine. A nil resolver uses default markers and the
// built-in language table; an empty supported list means DefaultSupportedLanguages.
func NewEngine(resolver *delimiter.Resolver, supported []string, opts ...Option) *Engine {
	if resolver == nil {
		resolver = delimiter.NewResolver(delimiter.DefaultMarkers(), nil)
	}
	if len(supported) == 0 {
		supported = DefaultSupportedLanguages
	}

	e := &Engine{
		resolver:  resolver,
		supported: make(map[string]struct{}, len(supported)),
		logger:    pkgLogger.NewComponentLogger("aggregator"),
	}
	for _, id := range supported {
		e.supported[id] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supports reports whether languageID may receive an aggregate block
func (e *Engine) Supports(languageID string) bool {
	_, ok := e.supported[languageID]
	return ok
}

// Resolver returns the resolver the engine builds matchers with
func (e *Engine) Resolver() *delimiter.Resolver {
	return e.resolver
}

// Run aggregates candidates into target. It returns false when the target's
// language is not supported, before any buffer is scanned.
func (e *Engine) Run(candidates []editor.Buffer, target editor.Buffer) (Result, bool) {
	if !e.Supports(target.LanguageID) {
		e.logger.DebugWithIntention(pkgLogger.IntentionSkip, "Target language not supported",
			"uri", target.URI, "language", target.LanguageID)
		return Result{}, false
	}

	m := e.resolver.Resolve(target.LanguageID)
	extractor := func(editor.Buffer) *delimiter.MatcherSet { return m }
	if e.perCandidate {
		cache := map[string]*delimiter.MatcherSet{target.LanguageID: m}
		extractor = func(b editor.Buffer) *delimiter.MatcherSet {
			if cm, ok := cache[b.LanguageID]; ok {
				return cm
			}
			cm := e.resolver.Resolve(b.LanguageID)
			cache[b.LanguageID] = cm
			return cm
		}
	}

	result := aggregate(candidates, target, m, extractor)
	e.logger.DebugWithIntention(pkgLogger.IntentionScan, "Aggregated context",
		"target", target.URI, "candidates", len(candidates), "chunks", len(result.Chunks),
		"replace_end", result.Replacement.RangeEnd)
	return result, true
}
