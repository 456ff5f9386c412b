package mcp

import (
	"context"
	"encoding/json"
	"strings"

	mcpapi "github.com/mark3labs/mcp-go/mcp"

	"github.com/fpt/auto-context/internal/infra"
	"github.com/fpt/auto-context/internal/repository"
	"github.com/fpt/auto-context/internal/trigger"
	"github.com/fpt/auto-context/pkg/aggregator"
	"github.com/fpt/auto-context/pkg/delimiter"
	"github.com/fpt/auto-context/pkg/editor"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// Tool names
const (
	ToolAggregateContext  = "aggregate_context"
	ToolInjectContext     = "inject_context"
	ToolResolveDelimiters = "resolve_delimiters"
)

// AggregateInput is the argument object of aggregate_context
type AggregateInput struct {
	Target     editor.Buffer   `json:"target" jsonschema:"required,description=Buffer that receives the aggregate block"`
	Candidates []editor.Buffer `json:"candidates" jsonschema:"description=Other open buffers in editor order; unsaved buffers are ignored"`
}

// InjectInput is the argument object of inject_context
type InjectInput struct {
	TargetPath string   `json:"target_path" jsonschema:"required,description=File to inject context into; relative to the server working directory"`
	OpenPaths  []string `json:"open_paths" jsonschema:"description=Files treated as open buffers in order"`
	DryRun     bool     `json:"dry_run,omitempty" jsonschema:"description=Compute the replacement without writing the file"`
}

// ResolveInput is the argument object of resolve_delimiters
type ResolveInput struct {
	LanguageID string `json:"language_id" jsonschema:"required,description=Editor language identifier such as typescript"`
}

// AggregateOutput is returned by aggregate_context and inject_context
type AggregateOutput struct {
	trigger.Outcome
	Text string `json:"text,omitempty"`
}

// DelimiterOutput is returned by resolve_delimiters
type DelimiterOutput struct {
	LanguageID string                  `json:"language_id"`
	Supported  bool                    `json:"supported"`
	Syntax     delimiter.CommentSyntax `json:"syntax"`
	Markers    delimiter.Markers       `json:"markers"`
	Lines      map[string]string       `json:"lines"`
}

// Tools exposes the aggregation engine as MCP tool handlers
type Tools struct {
	engine     *aggregator.Engine
	fsRepo     repository.FilesystemRepository
	workingDir string
	schemas    *schemaGenerator
	logger     *pkgLogger.Logger
}

// NewTools creates the tool set. inject_context resolves paths against workingDir.
func NewTools(engine *aggregator.Engine, fsRepo repository.FilesystemRepository, workingDir string) *Tools {
	return &Tools{
		engine:     engine,
		fsRepo:     fsRepo,
		workingDir: workingDir,
		schemas:    newSchemaGenerator(),
		logger:     pkgLogger.NewComponentLogger("mcp-tools"),
	}
}

func (t *Tools) AggregateDefinition() mcpapi.Tool {
	return mcpapi.NewToolWithRawSchema(ToolAggregateContext,
		"Collect [COPILOT CONTEXT] fragments from candidate buffers and return the replacement "+
			"that injects them at the top of the target buffer, plus the resulting target text. Nothing is written.",
		t.schemas.mustGenerate(AggregateInput{}))
}

func (t *Tools) InjectDefinition() mcpapi.Tool {
	return mcpapi.NewToolWithRawSchema(ToolInjectContext,
		"Aggregate context fragments from open files and write the aggregate block into the target file.",
		t.schemas.mustGenerate(InjectInput{}))
}

func (t *Tools) ResolveDefinition() mcpapi.Tool {
	return mcpapi.NewToolWithRawSchema(ToolResolveDelimiters,
		"Show the comment syntax and marker lines used for a language.",
		t.schemas.mustGenerate(ResolveInput{}))
}

// HandleAggregate runs the engine over buffers supplied by the caller
func (t *Tools) HandleAggregate(ctx context.Context, request mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error) {
	var in AggregateInput
	if err := request.BindArguments(&in); err != nil {
		return mcpapi.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Target.URI) == "" {
		return mcpapi.NewToolResultError("target.uri is required"), nil
	}
	if in.Target.Scheme == "" {
		in.Target.Scheme = editor.SchemeFile
	}

	session := infra.NewMemorySession(in.Candidates...)
	session.Add(in.Target)
	if err := session.SetActive(in.Target.URI); err != nil {
		return mcpapi.NewToolResultError(err.Error()), nil
	}

	out, err := trigger.NewCoordinator(t.engine, session).RunOnce(ctx)
	if err != nil {
		return mcpapi.NewToolResultError(err.Error()), nil
	}
	text, _ := session.Text(in.Target.URI)
	return jsonResult(AggregateOutput{Outcome: out, Text: text})
}

// HandleInject runs the engine over files on disk and writes the target
func (t *Tools) HandleInject(ctx context.Context, request mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error) {
	var in InjectInput
	if err := request.BindArguments(&in); err != nil {
		return mcpapi.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.TargetPath) == "" {
		return mcpapi.NewToolResultError("target_path is required"), nil
	}

	session := infra.NewFileSession(t.fsRepo, t.workingDir)
	for _, p := range in.OpenPaths {
		if _, err := session.Open(ctx, p); err != nil {
			return mcpapi.NewToolResultError(err.Error()), nil
		}
	}
	targetURI, err := session.Open(ctx, in.TargetPath)
	if err != nil {
		return mcpapi.NewToolResultError(err.Error()), nil
	}
	if err := session.Focus(targetURI); err != nil {
		return mcpapi.NewToolResultError(err.Error()), nil
	}

	out, err := trigger.NewCoordinator(t.engine, session, trigger.WithDryRun(in.DryRun)).RunOnce(ctx)
	if err != nil {
		return mcpapi.NewToolResultError(err.Error()), nil
	}
	t.logger.InfoWithIntention(pkgLogger.IntentionInject, "inject_context finished",
		"target", targetURI, "status", out.Status)
	return jsonResult(AggregateOutput{Outcome: out})
}

// HandleResolve reports the matchers a language resolves to
func (t *Tools) HandleResolve(ctx context.Context, request mcpapi.CallToolRequest) (*mcpapi.CallToolResult, error) {
	var in ResolveInput
	if err := request.BindArguments(&in); err != nil {
		return mcpapi.NewToolResultError("invalid arguments: " + err.Error()), nil
	}

	m := t.engine.Resolver().Resolve(in.LanguageID)
	out := DelimiterOutput{
		LanguageID: in.LanguageID,
		Supported:  t.engine.Supports(in.LanguageID),
		Syntax:     m.Syntax,
		Markers:    m.Markers,
		Lines: map[string]string{
			"chunk_start": m.MarkerLine(m.Markers.ChunkStart),
			"chunk_end":   m.MarkerLine(m.Markers.ChunkEnd),
			"context":     m.MarkerLine(m.Markers.Context),
			"context_all": m.MarkerLine(m.Markers.ContextAll),
		},
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcpapi.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpapi.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcpapi.NewToolResultText(string(data)), nil
}
