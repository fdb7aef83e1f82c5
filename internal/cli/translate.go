package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	SortBy    string
	SortOrder string
	Schema    string
	Limit     uint64
	Offset    uint64
}

// TranslateOutput is the JSON payload of the translate command.
type TranslateOutput struct {
	Query     string `json:"query"`
	CountSQL  string `json:"count_sql"`
	SearchSQL string `json:"search_sql"`
	Where     string `json:"where,omitempty"`
	Params    []any  `json:"params"`

	// SearchParams are Params plus LIMIT and OFFSET when paging.
	SearchParams []any  `json:"search_params"`
	Recovered    bool   `json:"recovered"`
	Snapshot     string `json:"snapshot"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <query>",
		Short: "Translate a query into count and search SQL",
		Long: `Translate a GCLQL query into parameterized PostgreSQL.

Prints the COUNT statement, the search statement with ORDER BY, and the
positional parameters both share. Queries that do not parse are
degraded to free-text search and reported as recovered.

Exit codes:
  0 - Query translated (possibly recovered)
  1 - Query rejected (unknown field, bad operator, bad sort order)
  2 - Command error (no schema, bad config, etc.)

Examples:
  gclql translate 'status=active AND energy>5' --schema schema.yaml
  gclql translate '"beam test"' --sort-by category_name --sort-order asc
  gclql translate 'tag:*' --limit 50 --offset 100 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "", "field to sort by (default from config)")
	cmd.Flags().StringVar(&opts.SortOrder, "sort-order", "", "asc or desc (default from config)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema snapshot file (.yaml, .json, .cue)")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 0, "append LIMIT to the search statement")
	cmd.Flags().Uint64Var(&opts.Offset, "offset", 0, "OFFSET used with --limit")

	return cmd
}

func runTranslate(opts *TranslateOptions, query string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(cmd.Context(), opts.config(), opts.Schema)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := s.planner.ParseQuery(query, opts.SortBy, opts.SortOrder)
	if err != nil {
		return out.ReportQueryError(err)
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
	if opts.Limit > 0 {
		result.SearchSQL, result.SearchParams = plan.Page(opts.Limit, opts.Offset)
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	writePlan(cmd.OutOrStdout(), result)
	return nil
}

// writePlan prints a translation for humans.
func writePlan(w io.Writer, r TranslateOutput) {
	fmt.Fprintf(w, "count:  %s\n", r.CountSQL)
	fmt.Fprintf(w, "search: %s\n", r.SearchSQL)
	fmt.Fprintf(w, "params: %s\n", formatParams(r.SearchParams))
	if r.Recovered {
		fmt.Fprintln(w, "note:   query did not parse; recovered as free-text search")
	}
}

// formatParams renders params as "$1=... $2=..." with strings quoted.
func formatParams(params []any) string {
	if len(params) == 0 {
		return "(none)"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		if s, ok := p.(string); ok {
			parts[i] = fmt.Sprintf("$%d=%q", i+1, s)
		} else {
			parts[i] = fmt.Sprintf("$%d=%v", i+1, p)
		}
	}
	return strings.Join(parts, " ")
}

