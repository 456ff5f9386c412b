package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fpt/auto-context/internal/app"
	"github.com/fpt/auto-context/internal/config"
	"github.com/fpt/auto-context/internal/infra"
	"github.com/fpt/auto-context/internal/mcp"
	"github.com/fpt/auto-context/internal/repository"
	"github.com/fpt/auto-context/internal/trigger"
	pkgLogger "github.com/fpt/auto-context/pkg/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// resolveStringFlag returns the non-empty value, preferring short flag over long flag
func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("autoctx - inject [COPILOT CONTEXT] snippets from open files into the file you are editing")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  autoctx [flags] [open files...]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  autoctx                                  # Interactive session (restores open files)")
	fmt.Println("  autoctx -a src/app.ts src/types.ts       # Inject context from types.ts into app.ts")
	fmt.Println("  autoctx -n -a src/app.ts src/*.ts        # Print the block without writing it")
	fmt.Println("  autoctx -w -a src/app.ts src/*.ts        # Keep app.ts up to date while editing")
	fmt.Println("  autoctx -mcp                             # Serve the tools over MCP stdio")
	fmt.Println()
	fmt.Println("Settings are read from .autoctx/settings.yaml or ~/.autoctx/settings.yaml (.toml also accepted).")
	fmt.Println()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Define command line flags
	var active = flag.String("a", "", "Target file that receives the context block")
	var activeLong = flag.String("active", "", "Target file that receives the context block")
	var settingsPath = flag.String("settings", "", "Path to settings file (.yaml or .toml)")
	var workdir = flag.String("workdir", "", "Working directory")
	var watch = flag.Bool("w", false, "Watch open files and refresh the target on edits")
	var watchLong = flag.Bool("watch", false, "Watch open files and refresh the target on edits")
	var serveMCP = flag.Bool("mcp", false, "Serve the context tools over MCP stdio")
	var dryRun = flag.Bool("n", false, "Print the block instead of writing it")
	var dryRunLong = flag.Bool("dry-run", false, "Print the block instead of writing it")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var verboseLong = flag.Bool("verbose", false, "Enable verbose logging (debug level)")
	var help = flag.Bool("h", false, "Show this help message")
	var helpLong = flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help || *helpLong {
		flag.Usage()
		return
	}

	resolvedActive := resolveStringFlag(*active, *activeLong)
	resolvedDryRun := *dryRun || *dryRunLong
	resolvedVerbose := *verbose || *verboseLong
	args := flag.Args()

	// Determine working directory before settings so .autoctx/ is found relative to it
	workingDirectory := "."
	if *workdir != "" {
		if info, err := os.Stat(*workdir); err != nil || !info.IsDir() {
			fmt.Fprintf(os.Stderr, "Working directory does not exist: %s\n", *workdir)
			os.Exit(1)
		}
		workingDirectory = *workdir
	}
	if abs, err := filepath.Abs(workingDirectory); err == nil {
		workingDirectory = abs
	}
	if err := os.Chdir(workingDirectory); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot enter working directory: %v\n", err)
		os.Exit(1)
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}

	logLevel := settings.LogLevel
	if resolvedVerbose {
		logLevel = "debug"
	}
	var logger *pkgLogger.Logger
	if *serveMCP {
		// stdout belongs to the protocol
		logger = pkgLogger.NewConsoleOnlyLogger(pkgLogger.LogLevel(logLevel), os.Stderr)
		pkgLogger.SetGlobalLogger(logger)
	} else {
		pkgLogger.SetGlobalLoggerWithConsoleWriter(pkgLogger.LogLevel(logLevel), os.Stdout)
		logger = pkgLogger.NewLoggerWithConsoleWriter(pkgLogger.LogLevel(logLevel), os.Stdout)
	}
	if resolvedVerbose {
		logger.DebugWithIntention(pkgLogger.IntentionDebug, "Verbose logging enabled", "log_level", logLevel)
	}

	if err := config.ValidateSettings(settings); err != nil {
		logger.Error("Settings validation failed", "error", err)
		os.Exit(1)
	}

	engine := settings.NewEngine()
	fsRepo := infra.NewOSFilesystemRepository()

	if *serveMCP {
		s := mcp.NewServer(Version, engine, fsRepo, workingDirectory)
		if err := mcp.ServeStdio(s); err != nil {
			logger.Error("MCP server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	isInteractiveMode := resolvedActive == "" && len(args) == 0
	var stateRepo repository.SessionStateRepository
	historyFile := ""
	if isInteractiveMode {
		stateRepo, historyFile = projectState(workingDirectory, logger)
	}

	w := app.NewWorkspace(ctx, engine, fsRepo, app.WorkspaceOptions{
		WorkingDir: workingDirectory,
		DryRun:     resolvedDryRun,
		StateRepo:  stateRepo,
		Out:        os.Stdout,
		Logger:     logger,
	})
	defer w.Shutdown()

	if isInteractiveMode {
		if settings.Watch.Enabled || *watch || *watchLong {
			if err := w.Watch(ctx, settings.Watch.DebounceDuration()); err != nil {
				logger.Warn("File watching disabled", "error", err)
			}
		}
		app.StartInteractiveMode(ctx, w, historyFile)
		return
	}

	if resolvedActive == "" {
		fmt.Fprintln(os.Stderr, "A target file is required: use -a <file>")
		os.Exit(2)
	}
	if err := w.Open(ctx, args...); err != nil {
		logger.Error("Failed to open file", "error", err)
		os.Exit(1)
	}
	if err := w.Open(ctx, resolvedActive); err != nil {
		logger.Error("Failed to open target", "error", err)
		os.Exit(1)
	}

	out, err := w.Focus(ctx, resolvedActive)
	if err != nil {
		logger.Error("Context injection failed", "error", err)
		os.Exit(1)
	}
	if resolvedDryRun {
		app.WriteBlockPreview(os.Stdout, out)
	} else {
		app.WriteOutcome(os.Stdout, out)
	}

	if *watch || *watchLong {
		if err := w.Watch(ctx, settings.Watch.DebounceDuration()); err != nil {
			logger.Error("Failed to start watcher", "error", err)
			os.Exit(1)
		}
		logger.InfoWithIntention(pkgLogger.IntentionStatus, "Press Ctrl+C to stop")
		<-ctx.Done()
		return
	}

	if out.Status == trigger.StatusUnsupported {
		os.Exit(3)
	}
}

// projectState returns the per-project session state repository and readline history file
func projectState(workingDirectory string, logger *pkgLogger.Logger) (repository.SessionStateRepository, string) {
	userConfig, err := config.DefaultUserConfig()
	if err != nil {
		logger.Warn("Session state disabled", "error", err)
		return nil, ""
	}
	sessionFile, err := userConfig.GetProjectSessionFile(workingDirectory)
	if err != nil {
		logger.Warn("Session state disabled", "error", err)
		return nil, ""
	}
	historyFile, err := userConfig.GetProjectHistoryFile(workingDirectory)
	if err != nil {
		historyFile = ""
	}
	return infra.NewFileSessionStateRepository(sessionFile), historyFile
}
