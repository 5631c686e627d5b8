// Package shell provides the interactive command line of commsync-replay.
//
// The shell reads the live registry through an inspect.Inspector and
// requests changes from the kernel through an inspect.RemoteWriter, so the
// registry itself only ever changes when the kernel answers.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/chzyer/readline"

	"github.com/commsync/commsync-go/pkg/inspect"
	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/subscription"
)

// maxSuggestDistance bounds the edit distance of "did you mean" hints.
const maxSuggestDistance = 2

// commands lists every command name and alias for completion and hints.
var commands = []string{
	"help", "list", "ls", "inspect", "i", "get", "r", "resolve", "children",
	"watch", "unwatch", "snapshot", "set", "w", "send", "quit", "exit", "q",
}

// Shell is the interactive registry browser.
type Shell struct {
	inspector *inspect.Inspector
	writer    *inspect.RemoteWriter
	formatter *inspect.Formatter
	rl        *readline.Instance
	out       io.Writer

	mu      sync.Mutex
	watches map[string]func()
}

// New creates a shell reading models and sending requests through updater.
func New(models model.Reader, updater inspect.Updater) (*Shell, error) {
	s := newShell(models, updater, nil)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "commsync> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s.rl = rl
	s.out = rl.Stdout()
	return s, nil
}

func newShell(models model.Reader, updater inspect.Updater, out io.Writer) *Shell {
	return &Shell{
		inspector: inspect.NewInspector(models),
		writer:    inspect.NewRemoteWriter(updater, models),
		formatter: inspect.NewFormatter(),
		out:       out,
		watches:   make(map[string]func()),
	}
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use it for log output while the shell runs.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()
	defer s.unwatchAll()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if s.Execute(ctx, line) {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) (quit bool) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "list", "ls":
		s.cmdList()

	case "inspect", "i":
		s.cmdInspect(args)

	case "get", "r":
		s.cmdGet(args)

	case "resolve":
		s.cmdResolve(args)

	case "children":
		s.cmdChildren(args)

	case "watch":
		s.cmdWatch(args)

	case "unwatch":
		s.cmdUnwatch(args)

	case "snapshot":
		snap := s.inspector.Models().Snapshot()
		fmt.Fprintf(s.out, "Snapshot v%d: %d models\n", snap.Version(), snap.Len())

	case "set", "w":
		s.cmdSet(ctx, args)

	case "send":
		s.cmdSend(ctx, args)

	case "quit", "exit", "q":
		return true

	default:
		if hint := suggest(cmd); hint != "" {
			fmt.Fprintf(s.out, "Unknown command: %s (did you mean '%s'?)\n", cmd, hint)
		} else {
			fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Commsync Commands:
  Registry:
    list                   - List models in creation order
    inspect <id>           - Show a model's state and references
    get <path>             - Read a value
    resolve <path>         - Resolve a model reference
    children <path>        - Resolve a list of model references
    snapshot               - Show registry version and size

  Notifications:
    watch [id [key]]       - Print changes (all, one model, or one key)
    unwatch [id [key]|all] - Stop printing changes

  Kernel requests:
    set <path> <value>     - Request a state update (JSON or plain string)
    send <id> <json>       - Send a custom message

  General:
    help                   - Show this help
    quit                   - Exit

  Path Format:
    model/key/nested - e.g., IPY_MODEL_slider1/value or box1/layout`)
}

func (s *Shell) cmdList() {
	rows := s.inspector.List()
	if len(rows) == 0 {
		fmt.Fprintln(s.out, "No models")
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatModelTable(rows))
}

func (s *Shell) cmdInspect(args []string) {
	if len(args) < 1 {
		s.cmdList()
		return
	}
	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}
	info, err := s.inspector.InspectModel(path.ModelID)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatModel(info))
}

func (s *Shell) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: get <path>")
		fmt.Fprintln(s.out, "  Example: get slider1/value")
		return
	}
	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}
	v, err := s.inspector.Read(path)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s = %s\n", path, s.formatter.FormatValue(v))
}

func (s *Shell) cmdResolve(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: resolve <path>")
		return
	}
	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}
	res, err := s.inspector.Resolve(path)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, s.formatter.FormatResult(res))
}

func (s *Shell) cmdChildren(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: children <path>")
		fmt.Fprintln(s.out, "  Example: children box1/children")
		return
	}
	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}
	results, err := s.inspector.Children(path)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	if len(results) == 0 {
		fmt.Fprintln(s.out, "No children")
		return
	}
	for i, res := range results {
		fmt.Fprintf(s.out, "  [%d] %s\n", i, s.formatter.FormatResult(res))
	}
}

func (s *Shell) cmdWatch(args []string) {
	key := watchKey(args)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.watches[key]; exists {
		fmt.Fprintf(s.out, "Already watching %s\n", key)
		return
	}

	show := func(c subscription.Change) {
		fmt.Fprintln(s.out, s.formatter.FormatChange(c))
	}
	var unsubscribe func()
	switch len(args) {
	case 0:
		unsubscribe = s.inspector.Models().Subscribe(show)
	case 1:
		unsubscribe = s.inspector.Models().SubscribeToModel(modelID(args[0]), show)
	default:
		unsubscribe = s.inspector.Models().SubscribeToKey(modelID(args[0]), args[1], show)
	}
	s.watches[key] = unsubscribe
	fmt.Fprintf(s.out, "Watching %s\n", key)
}

func (s *Shell) cmdUnwatch(args []string) {
	if len(args) == 1 && args[0] == "all" {
		n := s.unwatchAll()
		fmt.Fprintf(s.out, "Removed %d watches\n", n)
		return
	}

	key := watchKey(args)
	s.mu.Lock()
	unsubscribe, exists := s.watches[key]
	delete(s.watches, key)
	s.mu.Unlock()

	if !exists {
		fmt.Fprintf(s.out, "Not watching %s\n", key)
		return
	}
	unsubscribe()
	fmt.Fprintf(s.out, "Stopped watching %s\n", key)
}

func (s *Shell) unwatchAll() int {
	s.mu.Lock()
	watches := s.watches
	s.watches = make(map[string]func())
	s.mu.Unlock()

	for _, unsubscribe := range watches {
		unsubscribe()
	}
	return len(watches)
}

func (s *Shell) cmdSet(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: set <path> <value>")
		fmt.Fprintln(s.out, `  Example: set slider1/description "Gain"`)
		return
	}
	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}
	v := inspect.ParseValue(strings.Join(args[1:], " "))
	if err := s.writer.Write(ctx, path, v); err != nil {
		fmt.Fprintf(s.out, "Write failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "OK (sent)")
}

func (s *Shell) cmdSend(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: send <id> <json>")
		fmt.Fprintln(s.out, `  Example: send button1 {"event":"click"}`)
		return
	}
	path, ok := s.parsePath(args[0])
	if !ok {
		return
	}
	content := inspect.ParseValue(strings.Join(args[1:], " "))
	if err := s.writer.Send(ctx, path, content); err != nil {
		fmt.Fprintf(s.out, "Send failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "OK (sent)")
}

func (s *Shell) parsePath(arg string) (*inspect.Path, bool) {
	path, err := inspect.ParsePath(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return nil, false
	}
	return path, true
}

// completer completes command names and, after commands taking a path,
// model ids from the current snapshot.
func (s *Shell) completer() *readline.PrefixCompleter {
	ids := readline.PcItemDynamic(func(string) []string {
		return s.inspector.Models().Snapshot().IDs()
	})

	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, name := range commands {
		switch name {
		case "inspect", "get", "resolve", "children", "watch", "unwatch", "set", "send":
			items = append(items, readline.PcItem(name, ids))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// suggest returns the closest known command to cmd, or "" when none is
// close enough. Single-letter aliases are never suggested.
func suggest(cmd string) string {
	best, bestDist := "", maxSuggestDistance+1
	candidates := append([]string(nil), commands...)
	sort.Strings(candidates)
	for _, name := range candidates {
		if len(name) < 2 {
			continue
		}
		if d := levenshtein.ComputeDistance(cmd, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func watchKey(args []string) string {
	switch len(args) {
	case 0:
		return "*"
	case 1:
		return modelID(args[0])
	default:
		return modelID(args[0]) + "/" + args[1]
	}
}

// modelID accepts both bare ids and IPY_MODEL_ references.
func modelID(arg string) string {
	if path, err := inspect.ParsePath(arg); err == nil {
		return path.ModelID
	}
	return arg
}
