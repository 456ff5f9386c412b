package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
)

// SlashCommand represents a command that starts with /
type SlashCommand struct {
	Name        string
	Usage       string
	Description string
	Handler     func(ctx context.Context, w *Workspace, args []string) bool // Returns true if should exit
}

// getSlashCommands returns all available slash commands
func getSlashCommands() []SlashCommand {
	return []SlashCommand{
		{
			Name:        "open",
			Usage:       "/open <path>...",
			Description: "Open files as buffers",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				if len(args) == 0 {
					fmt.Fprintln(w.OutWriter(), "Usage: /open <path>...")
					return false
				}
				if err := w.Open(ctx, args...); err != nil {
					fmt.Fprintf(w.OutWriter(), "❌ %v\n", err)
					return false
				}
				WriteBufferList(w.OutWriter(), w.Session())
				return false
			},
		},
		{
			Name:        "close",
			Usage:       "/close <path|uri>",
			Description: "Close a buffer",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				if len(args) != 1 {
					fmt.Fprintln(w.OutWriter(), "Usage: /close <path|uri>")
					return false
				}
				if err := w.Close(args[0]); err != nil {
					fmt.Fprintf(w.OutWriter(), "❌ %v\n", err)
				}
				return false
			},
		},
		{
			Name:        "focus",
			Usage:       "/focus [path|uri|number]",
			Description: "Make a buffer active and inject context into it",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				var ref string
				if len(args) == 0 {
					selected, ok := selectBuffer(w)
					if !ok {
						return false
					}
					ref = selected
				} else {
					ref = resolveBufferRef(w, args[0])
				}
				out, err := w.Focus(ctx, ref)
				if err != nil {
					fmt.Fprintf(w.OutWriter(), "❌ %v\n", err)
					return false
				}
				WriteOutcome(w.OutWriter(), out)
				return false
			},
		},
		{
			Name:        "list",
			Usage:       "/list",
			Description: "List open buffers (* marks the active one)",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				WriteBufferList(w.OutWriter(), w.Session())
				return false
			},
		},
		{
			Name:        "preview",
			Usage:       "/preview",
			Description: "Show the block the active buffer would receive",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				out, err := w.Preview(ctx)
				if err != nil {
					fmt.Fprintf(w.OutWriter(), "❌ %v\n", err)
					return false
				}
				WriteBlockPreview(w.OutWriter(), out)
				return false
			},
		},
		{
			Name:        "inject",
			Usage:       "/inject",
			Description: "Refresh the context block of the active buffer",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				out, err := w.Inject(ctx)
				if err != nil {
					fmt.Fprintf(w.OutWriter(), "❌ %v\n", err)
					return false
				}
				WriteOutcome(w.OutWriter(), out)
				return false
			},
		},
		{
			Name:        "untitled",
			Usage:       "/untitled [language]",
			Description: "Open an unsaved scratch buffer",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				language := "typescript"
				if len(args) > 0 {
					language = args[0]
				}
				uri := w.OpenUntitled(language)
				fmt.Fprintf(w.OutWriter(), "📝 Opened %s (%s)\n", uri, language)
				return false
			},
		},
		{
			Name:        "help",
			Usage:       "/help",
			Description: "Show available commands",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				showInteractiveHelp(w.OutWriter())
				return false
			},
		},
		{
			Name:        "quit",
			Usage:       "/quit",
			Description: "Exit the interactive session",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				fmt.Fprintln(w.OutWriter(), "👋 Goodbye!")
				return true
			},
		},
		{
			Name:        "exit",
			Usage:       "/exit",
			Description: "Exit the interactive session (alias for quit)",
			Handler: func(ctx context.Context, w *Workspace, args []string) bool {
				fmt.Fprintln(w.OutWriter(), "👋 Goodbye!")
				return true
			},
		},
	}
}

// handleSlashCommand processes commands that start with /
// Returns true if the command requests program exit, false otherwise
func handleSlashCommand(ctx context.Context, input string, w *Workspace) bool {
	if strings.TrimSpace(input) == "/" {
		return showCommandSelector(ctx, w)
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	commandName := strings.TrimPrefix(parts[0], "/")
	commands := getSlashCommands()
	for _, cmd := range commands {
		if cmd.Name == commandName {
			return cmd.Handler(ctx, w, parts[1:])
		}
	}

	out := w.OutWriter()
	fmt.Fprintf(out, "❌ Unknown command: /%s\n", commandName)
	fmt.Fprintln(out, "💡 Available commands:")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %s - %s\n", cmd.Usage, cmd.Description)
	}
	return false
}

// resolveBufferRef accepts the 1-based number shown by /list as well as paths and URIs
func resolveBufferRef(w *Workspace, ref string) string {
	if n, err := strconv.Atoi(ref); err == nil {
		uris := w.Session().OpenURIs()
		if n >= 1 && n <= len(uris) {
			return uris[n-1]
		}
	}
	return ref
}

// showCommandSelector shows an interactive command selector using promptui
func showCommandSelector(ctx context.Context, w *Workspace) bool {
	commands := getSlashCommands()

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Name | cyan }} - {{ .Description | faint }}",
		Inactive: "  {{ .Name | cyan }} - {{ .Description | faint }}",
		Selected: "{{ .Name | cyan }}",
		Details: `
--------- Command Details ----------
{{ "Usage:" | faint }}\t{{ .Usage }}
{{ "Description:" | faint }}\t{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		name := strings.ToLower(commands[index].Name)
		return strings.Contains(name, strings.ToLower(strings.TrimSpace(input)))
	}

	prompt := promptui.Select{
		Label:     "Choose a command",
		Items:     commands,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Fprintln(w.OutWriter(), "\nCancelled.")
			return false
		}
		fmt.Fprintf(w.OutWriter(), "Command selection failed: %v\n", err)
		return false
	}
	return commands[i].Handler(ctx, w, nil)
}

// selectBuffer lets the user pick an open buffer with promptui
func selectBuffer(w *Workspace) (string, bool) {
	uris := w.Session().OpenURIs()
	if len(uris) == 0 {
		fmt.Fprintln(w.OutWriter(), "📭 No open buffers. Use /open <path>.")
		return "", false
	}
	labels := make([]string, len(uris))
	for i, uri := range uris {
		labels[i] = displayName(w.Session(), uri)
	}

	prompt := promptui.Select{
		Label: "Focus buffer",
		Items: labels,
		Size:  10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(labels[index]), strings.ToLower(strings.TrimSpace(input)))
		},
	}
	i, _, err := prompt.Run()
	if err != nil {
		if err != promptui.ErrInterrupt {
			fmt.Fprintf(w.OutWriter(), "Buffer selection failed: %v\n", err)
		}
		return "", false
	}
	return uris[i], true
}

// StartInteractiveMode runs the readline-based REPL
func StartInteractiveMode(ctx context.Context, w *Workspace, historyFile string) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "autoctx> ",
		HistoryFile:         historyFile,
		AutoComplete:        createAutoCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		HistoryLimit:        2000,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		fmt.Fprintf(w.OutWriter(), "❌ Failed to initialize interactive mode: %v\n", err)
		fmt.Fprintln(w.OutWriter(), "💡 Use one-shot mode instead: autoctx -a <target> <open files>")
		return
	}
	defer rl.Close()

	WriteBanner(w.OutWriter(), w.Session().WorkingDir(), true)
	fmt.Fprintln(w.OutWriter(), "💬 Commands start with '/'. Type /help for the list.")
	WriteBufferList(w.OutWriter(), w.Session())

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			fmt.Fprintln(w.OutWriter(), "💡 Commands start with '/'. Type /help for the list.")
			continue
		}
		if handleSlashCommand(ctx, line, w) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
}

// createAutoCompleter creates an autocompletion function for readline
func createAutoCompleter() *readline.PrefixCompleter {
	var pcItems []readline.PrefixCompleterInterface
	for _, cmd := range getSlashCommands() {
		pcItems = append(pcItems, readline.PcItem("/"+cmd.Name))
	}
	pcItems = append(pcItems, readline.PcItem("/"))
	return readline.NewPrefixCompleter(pcItems...)
}

// filterInput filters input runes to handle special keys
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showInteractiveHelp(out io.Writer) {
	fmt.Fprintln(out, "\n📚 Interactive Commands:")
	fmt.Fprintf(out, "  %-26s - %s\n", "/", "Show interactive command selector")
	for _, cmd := range getSlashCommands() {
		fmt.Fprintf(out, "  %-26s - %s\n", cmd.Usage, cmd.Description)
	}
	fmt.Fprintln(out, "\n💡 Mark code in any open file with a pair of context comments:")
	fmt.Fprintln(out, "  // [COPILOT CONTEXT]")
	fmt.Fprintln(out, "  export interface User { id: string }")
	fmt.Fprintln(out, "  // [COPILOT CONTEXT]")
	fmt.Fprintln(out, "  then /focus the file you are editing to receive it as a CHUNK block.")
}
