package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/gclql/internal/schema"
)

const shellPrompt = "gclql> "

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions
	Schema string
	Watch  bool
}

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Translate queries interactively",
		Long: `Start an interactive shell that translates each line as a query.

Shell commands:
  :sort <field> [asc|desc]  set the sort for following queries
  :sort                     reset to the configured default sort
  :fields                   list sortable fields
  :schema                   summarize the current snapshot
  :help                     show this help
  exit, quit, Ctrl+D        leave the shell

With --watch, edits to the schema file are picked up without restarting.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema snapshot file (.yaml, .json, .cue)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload the schema file when it changes")

	return cmd
}

func runShell(opts *ShellOptions, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg := opts.config()
	s, err := openSession(ctx, cfg, opts.Schema)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.Watch || cfg.Schema.Watch {
		if s.schemaPath == "" {
			return NewExitError(ExitCommandError, "--watch needs a schema file")
		}
		w, err := schema.NewWatcher(s.schemaPath, s.provider)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch schema file", err)
		}
		defer w.Close()
		w.OnReload = func(_ *schema.Context, err error) {
			if err == nil {
				slog.Info("schema reloaded", "path", s.schemaPath)
			}
		}
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("schema watcher stopped", "error", err)
			}
		}()
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		return completeField(s, input)
	})

	historyFile := shellHistoryPath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "gclql shell on %s\n", describe(s.provider.Current()))
	fmt.Fprintln(out, "Type ':help' for commands, 'exit' or Ctrl+D to quit")

	sh := &shell{session: s, opts: opts.RootOptions, out: out}
	return sh.loop(line)
}

// prompter is the part of *liner.State the shell loop uses.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// shell is the interactive loop state.
type shell struct {
	session   *session
	opts      *RootOptions
	out       io.Writer
	sortBy    string
	sortOrder string
}

func (sh *shell) loop(p prompter) error {
	for {
		input, err := p.Prompt(shellPrompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(sh.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		switch {
		case trimmed == "":
			continue
		case trimmed == "exit" || trimmed == "quit":
			return nil
		}
		p.AppendHistory(input)

		if strings.HasPrefix(trimmed, ":") {
			sh.command(trimmed)
			continue
		}
		sh.translate(input)
	}
}

func (sh *shell) translate(query string) {
	plan, err := sh.session.planner.ParseQuery(query, sh.sortBy, sh.sortOrder)
	if err != nil {
		out := &OutputFormatter{Format: sh.opts.Format, Writer: sh.out, Verbose: true}
		_ = out.ReportQueryError(err)
		return
	}
	result := TranslateOutput{
		Query:        query,
		CountSQL:     plan.CountSQL,
		SearchSQL:    plan.SearchSQL,
		Where:        plan.Where,
		Params:       plan.Params,
		SearchParams: plan.Params,
		Recovered:    plan.Recovered,
		Snapshot:     plan.Snapshot,
	}
	if sh.opts.Format == "json" {
		out := &OutputFormatter{Format: "json", Writer: sh.out}
		_ = out.Success(result)
		return
	}
	if plan.Where != "" {
		fmt.Fprintf(sh.out, "where:  %s\n", plan.Where)
	}
	writePlan(sh.out, result)
}

func (sh *shell) command(input string) {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":sort":
		switch len(fields) {
		case 1:
			sh.sortBy, sh.sortOrder = "", ""
			fmt.Fprintln(sh.out, "sort reset to default")
		case 2, 3:
			sh.sortBy = fields[1]
			sh.sortOrder = ""
			if len(fields) == 3 {
				sh.sortOrder = fields[2]
			}
			fmt.Fprintf(sh.out, "sorting by %s %s\n", sh.sortBy, orDefault(sh.sortOrder, "(default order)"))
		default:
			fmt.Fprintln(sh.out, "usage: :sort <field> [asc|desc]")
		}
	case ":fields":
		names, err := sh.session.planner.SortableFields()
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		fmt.Fprintln(sh.out, strings.Join(names, "\n"))
	case ":schema":
		fmt.Fprintln(sh.out, describe(sh.session.provider.Current()))
	case ":help":
		fmt.Fprintln(sh.out, ":sort <field> [asc|desc], :sort, :fields, :schema, :help, exit")
	default:
		fmt.Fprintf(sh.out, "unknown command %s (try :help)\n", fields[0])
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// completeField completes the last word of input against the snapshot's
// field names.
func completeField(s *session, input string) []string {
	sc := s.provider.Current()
	if sc == nil {
		return nil
	}
	cut := strings.LastIndexAny(input, " (") + 1
	prefix, word := input[:cut], input[cut:]
	if word == "" {
		return nil
	}

	var out []string
	for _, name := range sc.FieldNames() {
		if strings.HasPrefix(name, word) {
			out = append(out, prefix+name)
		}
	}
	sort.Strings(out)
	return out
}

func shellHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, ".gclql_history")
}
