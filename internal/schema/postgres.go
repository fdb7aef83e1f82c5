package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
)

// OpenPostgres opens and pings a Postgres connection pool via lib/pq.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresDiscoverer introspects a live database through
// information_schema and the metadata column's contents.
type PostgresDiscoverer struct {
	DB        *sql.DB
	MainTable string

	// TableSchema is the Postgres schema holding the tables. Default "public".
	TableSchema string

	Options Options
}

const columnsQuery = `
	SELECT column_name, data_type
	FROM information_schema.columns
	WHERE table_name = $1 AND table_schema = $2
	ORDER BY ordinal_position`

const primaryKeyQuery = `
	SELECT kcu.column_name
	FROM information_schema.key_column_usage kcu
	JOIN information_schema.table_constraints tc
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY'
	AND kcu.table_name = $1
	AND kcu.table_schema = $2
	ORDER BY kcu.ordinal_position
	LIMIT 1`

const foreignKeysQuery = `
	SELECT kcu.column_name, ccu.table_name, ccu.column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
	AND tc.table_name = $1
	AND tc.table_schema = $2
	ORDER BY kcu.ordinal_position`

// Discover implements Source.
func (p *PostgresDiscoverer) Discover(ctx context.Context) (Discovery, error) {
	opts := p.Options.withDefaults()
	tableSchema := p.TableSchema
	if tableSchema == "" {
		tableSchema = "public"
	}
	if p.MainTable == "" {
		return Discovery{}, fmt.Errorf("postgres discovery: main table is required")
	}

	columns, err := p.columns(ctx, p.MainTable, tableSchema)
	if err != nil {
		return Discovery{}, err
	}
	if len(columns) == 0 {
		return Discovery{}, fmt.Errorf("postgres discovery: table %q not found in schema %q", p.MainTable, tableSchema)
	}

	pk, err := p.primaryKey(ctx, tableSchema)
	if err != nil {
		return Discovery{}, err
	}

	tables, fkColumns, err := p.navigationTables(ctx, tableSchema)
	if err != nil {
		return Discovery{}, err
	}
	hasMetadata := false
	for i := range columns {
		if fkColumns[columns[i].Name] {
			columns[i].IsForeignKey = true
		}
		if columns[i].Name == opts.MetadataField {
			hasMetadata = true
		}
	}

	var metadataFields []string
	if hasMetadata {
		metadataFields, err = p.metadataKeys(ctx, tableSchema, opts.MetadataField)
		if err != nil {
			return Discovery{}, err
		}
	}

	cls := Classify(columns, tables)
	slog.Debug("postgres schema discovered",
		"table", p.MainTable,
		"columns", len(columns),
		"navigation_tables", len(tables),
		"metadata_fields", len(metadataFields))

	return Discovery{
		MetadataFields:  metadataFields,
		Classifications: &cls,
		Navigation: Navigation{
			MainTable:       p.MainTable,
			Tables:          tables,
			MainTableSchema: MainTableSchema{Columns: columns, PrimaryKey: pk},
		},
	}, nil
}

func (p *PostgresDiscoverer) columns(ctx context.Context, table, tableSchema string) ([]Column, error) {
	rows, err := p.DB.QueryContext(ctx, columnsQuery, table, tableSchema)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// primaryKey falls back to "<singular>_id" when the table declares none.
func (p *PostgresDiscoverer) primaryKey(ctx context.Context, tableSchema string) (string, error) {
	var pk string
	err := p.DB.QueryRowContext(ctx, primaryKeyQuery, p.MainTable, tableSchema).Scan(&pk)
	if err == sql.ErrNoRows {
		return strings.TrimSuffix(p.MainTable, "s") + "_id", nil
	}
	if err != nil {
		return "", fmt.Errorf("query primary key: %w", err)
	}
	return pk, nil
}

type foreignKey struct {
	column, table, refColumn string
}

// navigationTables turns every "<key>_id" foreign key into a navigation
// table. It also returns the set of foreign-key columns.
func (p *PostgresDiscoverer) navigationTables(ctx context.Context, tableSchema string) ([]NavigationTable, map[string]bool, error) {
	rows, err := p.DB.QueryContext(ctx, foreignKeysQuery, p.MainTable, tableSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("query foreign keys: %w", err)
	}
	var fks []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.column, &fk.table, &fk.refColumn); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	fkColumns := make(map[string]bool, len(fks))
	var tables []NavigationTable
	for _, fk := range fks {
		fkColumns[fk.column] = true
		key, ok := strings.CutSuffix(fk.column, "_id")
		if !ok {
			continue
		}
		refCols, err := p.columns(ctx, fk.table, tableSchema)
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, NavigationTable{
			Key:        key,
			TableName:  fk.table,
			PrimaryKey: fk.refColumn,
			NameColumn: pickNameColumn(key, fk.refColumn, refCols),
		})
	}
	return tables, fkColumns, nil
}

// pickNameColumn chooses the display column of a lookup table: "name",
// then "<key>_name", then "title", then the first text column, then the
// primary key.
func pickNameColumn(key, pk string, cols []Column) string {
	has := make(map[string]bool, len(cols))
	for _, c := range cols {
		has[c.Name] = true
	}
	for _, candidate := range []string{"name", key + "_name", "title"} {
		if has[candidate] {
			return candidate
		}
	}
	for _, c := range cols {
		if IsStringType(c.DataType) {
			return c.Name
		}
	}
	return pk
}

// qualifiedTable renders schema.table with both parts quoted.
func qualifiedTable(tableSchema, table string) string {
	return pq.QuoteIdentifier(tableSchema) + "." + pq.QuoteIdentifier(table)
}

// metadataKeys lists top-level keys and one level of nested keys
// ("parent.child") present in the metadata column, minus lock markers.
func (p *PostgresDiscoverer) metadataKeys(ctx context.Context, tableSchema, metadataColumn string) ([]string, error) {
	table := qualifiedTable(tableSchema, p.MainTable)
	col := pq.QuoteIdentifier(metadataColumn)

	topLevel := fmt.Sprintf(`
		SELECT DISTINCT jsonb_object_keys(%[2]s)
		FROM %[1]s
		WHERE %[2]s IS NOT NULL AND %[2]s != 'null'::jsonb AND jsonb_typeof(%[2]s) = 'object'
		ORDER BY 1`, table, col)

	nested := fmt.Sprintf(`
		SELECT DISTINCT e.key || '.' || jsonb_object_keys(e.value)
		FROM %[1]s, jsonb_each(%[2]s) AS e
		WHERE %[2]s IS NOT NULL AND jsonb_typeof(%[2]s) = 'object'
		AND jsonb_typeof(e.value) = 'object'
		ORDER BY 1`, table, col)

	var keys []string
	for _, q := range []string{topLevel, nested} {
		rows, err := p.DB.QueryContext(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query metadata keys: %w", err)
		}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan metadata key: %w", err)
			}
			if !IsLockKey(k) {
				keys = append(keys, k)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
