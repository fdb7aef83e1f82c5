package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gclql/internal/parser"
)

// ParseOutput is the JSON payload of the parse command.
type ParseOutput struct {
	Query string `json:"query"`
	AST   string `json:"ast"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Print the syntax tree of a query",
		Long: `Parse a query and print its syntax tree as an S-expression.

No schema is needed. Syntax errors are reported with their position and
exit with code 1; translate would recover from them instead.

Example:
  gclql parse 'status=active AND NOT (tag:* OR "beam test")'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	node, err := parser.Parse(query)
	if err != nil {
		return out.ReportQueryError(err)
	}

	if opts.Format == "json" {
		return out.Success(ParseOutput{Query: query, AST: node.String()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), node.String())
	return nil
}
