package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gclql/internal/schema"
	"github.com/roach88/gclql/internal/store"
)

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schema",
		Short:         "Discover, inspect and version schema snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newSchemaDiscoverCommand(rootOpts))
	cmd.AddCommand(newSchemaShowCommand(rootOpts))
	cmd.AddCommand(newSchemaHistoryCommand(rootOpts))
	cmd.AddCommand(newSchemaSaveCommand(rootOpts))
	return cmd
}

// SchemaDiscoverOptions holds flags for schema discover.
type SchemaDiscoverOptions struct {
	*RootOptions
	DSN         string
	MainTable   string
	TableSchema string
	Save        bool
	Output      string
}

// DiscoverOutput is the JSON payload of schema discover.
type DiscoverOutput struct {
	MainTable   string `json:"main_table"`
	Fingerprint string `json:"fingerprint"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	Created     bool   `json:"created"`
	Output      string `json:"output,omitempty"`
}

func newSchemaDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaDiscoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Introspect a Postgres database",
		Long: `Discover the main table, its navigation tables and metadata keys
from a live Postgres database.

With --save the snapshot is stored in the SQLite snapshot store
(store.path); an unchanged schema does not add a version. With -o it is
written to a snapshot file usable with --schema.

Example:
  gclql schema discover --dsn postgres://localhost/catalog --table datasets --save
  gclql schema discover -o schema.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaDiscover(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Postgres connection string (default database.dsn)")
	cmd.Flags().StringVar(&opts.MainTable, "table", "", "main table (default main_table)")
	cmd.Flags().StringVar(&opts.TableSchema, "table-schema", "", "Postgres schema (default database.table_schema)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store the snapshot in store.path")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the snapshot to a .yaml or .json file")

	return cmd
}

func runSchemaDiscover(opts *SchemaDiscoverOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(opts.RootOptions, cmd)

	cfg := *opts.config()
	if opts.MainTable != "" {
		cfg.MainTable = opts.MainTable
	}
	if opts.TableSchema != "" {
		cfg.Database.TableSchema = opts.TableSchema
	}
	dsn := opts.DSN
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	if dsn == "" {
		return NewExitError(ExitCommandError, "no database: pass --dsn or configure database.dsn")
	}
	if opts.Save && cfg.Store.Path == "" {
		return NewExitError(ExitCommandError, "--save requires store.path in the config")
	}

	disc, err := newDiscoverer(ctx, &cfg, dsn)
	if err != nil {
		return err
	}
	defer disc.DB.Close()

	out.VerboseLog("discovering %s.%s", cfg.Database.TableSchema, cfg.MainTable)
	d, err := disc.Discover(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "schema discovery failed", err)
	}
	sc, err := schema.Build(d, cfg.SchemaOptions())
	if err != nil {
		return WrapExitError(ExitCommandError, "discovered schema is invalid", err)
	}

	result := DiscoverOutput{MainTable: sc.MainTable(), Fingerprint: sc.Fingerprint()}

	if opts.Output != "" {
		if err := schema.SaveFile(opts.Output, d); err != nil {
			return WrapExitError(ExitCommandError, "failed to write snapshot file", err)
		}
		result.Output = opts.Output
	}

	if opts.Save {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open snapshot store", err)
		}
		defer st.Close()

		snap, created, err := st.Save(ctx, sc, "postgres")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to save snapshot", err)
		}
		result.SnapshotID = snap.ID
		result.Created = created
	}

	if opts.Format == "json" {
		return out.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Discovered %s\n", describe(sc))
	if result.Output != "" {
		fmt.Fprintf(w, "Wrote %s\n", result.Output)
	}
	if opts.Save {
		if result.Created {
			fmt.Fprintf(w, "Saved snapshot %s\n", result.SnapshotID)
		} else {
			fmt.Fprintf(w, "Schema unchanged; latest snapshot is %s\n", result.SnapshotID)
		}
	}
	return nil
}

// ShowOutput is the JSON payload of schema show.
type ShowOutput struct {
	MainTable      string       `json:"main_table"`
	MainAlias      string       `json:"main_alias"`
	PrimaryKey     string       `json:"primary_key"`
	Fingerprint    string       `json:"fingerprint"`
	Origin         string       `json:"origin"`
	Navigation     []ShowJoin   `json:"navigation"`
	MetadataFields []string     `json:"metadata_fields"`
	SortableFields []string     `json:"sortable_fields"`
	Columns        []ShowColumn `json:"columns"`
}

// ShowJoin describes one navigation table.
type ShowJoin struct {
	Key        string `json:"key"`
	Table      string `json:"table"`
	Alias      string `json:"alias"`
	NameColumn string `json:"name_column"`
}

// ShowColumn describes one main-table column.
type ShowColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
	SQL  string `json:"sql"`
}

func newSchemaShowCommand(rootOpts *RootOptions) *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Print the schema snapshot queries are resolved against",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaShow(rootOpts, schemaPath, cmd)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema snapshot file (.yaml, .json, .cue)")
	return cmd
}

func runSchemaShow(opts *RootOptions, schemaPath string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	s, err := openSession(cmd.Context(), opts.config(), schemaPath)
	if err != nil {
		return err
	}
	defer s.Close()

	sc := s.provider.Current()
	result := ShowOutput{
		MainTable:      sc.MainTable(),
		MainAlias:      sc.MainAlias(),
		PrimaryKey:     sc.PrimaryKey(),
		Fingerprint:    sc.Fingerprint(),
		Origin:         s.origin,
		Navigation:     []ShowJoin{},
		MetadataFields: sc.MetadataFields(),
		SortableFields: sc.SortableFields(),
		Columns:        []ShowColumn{},
	}
	for _, n := range sc.Navigation() {
		result.Navigation = append(result.Navigation, ShowJoin{
			Key: n.Key, Table: n.TableName, Alias: n.Alias, NameColumn: n.NameColumn,
		})
	}
	for _, c := range sc.Columns() {
		expr, _ := sc.ColumnSQL(c.Name)
		result.Columns = append(result.Columns, ShowColumn{Name: c.Name, Type: c.DataType, SQL: expr})
	}

	if opts.Format == "json" {
		return out.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Table:       %s %s (primary key %s)\n", result.MainTable, result.MainAlias, result.PrimaryKey)
	fmt.Fprintf(w, "Source:      %s\n", result.Origin)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)

	fmt.Fprintln(w, "\nColumns:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range result.Columns {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Name, c.Type, c.SQL)
	}
	tw.Flush()

	if len(result.Navigation) > 0 {
		fmt.Fprintln(w, "\nNavigation:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, n := range result.Navigation {
			fmt.Fprintf(tw, "  %s\t%s %s\t%s.%s\n", n.Key, n.Table, n.Alias, n.Alias, n.NameColumn)
		}
		tw.Flush()
	}

	fmt.Fprintf(w, "\nMetadata fields: %s\n", joinOrNone(result.MetadataFields))
	fmt.Fprintf(w, "Sortable fields: %s\n", joinOrNone(result.SortableFields))
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// SchemaHistoryOptions holds flags for schema history.
type SchemaHistoryOptions struct {
	*RootOptions
	MainTable string
	Limit     int
}

// HistoryEntry is one stored snapshot in schema history output.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Seq         int64     `json:"seq"`
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	Fields      int       `json:"metadata_fields"`
}

func newSchemaHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaHistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List stored snapshots, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaHistory(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.MainTable, "table", "", "main table (default main_table)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of snapshots (0 for all)")
	return cmd
}

func runSchemaHistory(opts *SchemaHistoryOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	cfg := opts.config()

	table := opts.MainTable
	if table == "" {
		table = cfg.MainTable
	}
	if table == "" {
		return NewExitError(ExitCommandError, "no main table: pass --table or configure main_table")
	}
	if cfg.Store.Path == "" {
		return NewExitError(ExitCommandError, "no snapshot store: configure store.path")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open snapshot store", err)
	}
	defer st.Close()

	snaps, err := st.History(cmd.Context(), table, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot history", err)
	}

	entries := make([]HistoryEntry, 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, HistoryEntry{
			ID:          s.ID,
			Seq:         s.Seq,
			Fingerprint: s.Fingerprint,
			Source:      s.Source,
			CreatedAt:   s.CreatedAt,
			Fields:      len(s.Discovery.MetadataFields),
		})
	}

	if opts.Format == "json" {
		return out.Success(entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(w, "No snapshots stored for %s.\n", table)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tFINGERPRINT\tSOURCE\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.ID, shortFingerprint(e.Fingerprint), e.Source, e.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func newSchemaSaveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <snapshot-file>",
		Short: "Store a snapshot file as a new version",
		Long: `Load a snapshot file and store it in the snapshot store (store.path).
Saving an unchanged schema does not add a version.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaSave(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSchemaSave(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(opts, cmd)
	cfg := opts.config()

	if cfg.Store.Path == "" {
		return NewExitError(ExitCommandError, "no snapshot store: configure store.path")
	}

	d, err := schema.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load snapshot file", err)
	}
	sc, err := schema.Build(d, cfg.SchemaOptions())
	if err != nil {
		return WrapExitError(ExitCommandError, "snapshot is invalid", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open snapshot store", err)
	}
	defer st.Close()

	snap, created, err := st.Save(ctx, sc, "file:"+path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save snapshot", err)
	}

	result := DiscoverOutput{
		MainTable:   sc.MainTable(),
		Fingerprint: sc.Fingerprint(),
		SnapshotID:  snap.ID,
		Created:     created,
	}
	if opts.Format == "json" {
		return out.Success(result)
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s of %s\n", snap.ID, describe(sc))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema unchanged; latest snapshot is %s\n", snap.ID)
	}
	return nil
}
