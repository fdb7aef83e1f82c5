package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// fingerprintDomain prefixes the fingerprint hash. The version suffix
// allows the canonical form to change later.
const fingerprintDomain = "gclql/schema/v1"

// NavigationEntry is a navigation table with its assigned alias.
type NavigationEntry struct {
	NavigationTable
	Alias string
}

// Context is an immutable snapshot of everything translation needs to
// know about the schema. Create one with Build.
type Context struct {
	opts       Options
	source     Discovery
	mainTable  string
	primaryKey string
	columns    []Column

	columnSQL       map[string]string
	metadataFields  map[string]bool
	stringFields    map[string]bool
	idFields        map[string]bool
	entityFields    map[string]bool
	timestampFields map[string]bool

	navigation []NavigationEntry
	navByKey   map[string]int

	fingerprint string
}

// Build validates a Discovery and freezes it into a Context.
//
// Navigation aliases are assigned in the order the tables are listed.
// Navigation keys missing from the column mapping are added as
// "<alias>.<name_column>" so that filtering on an entity key compares
// against the joined display name. Lock-marker metadata keys are dropped.
func Build(d Discovery, opts Options) (*Context, error) {
	opts = opts.withDefaults()
	nav := d.Navigation

	if nav.MainTable == "" {
		return nil, fmt.Errorf("schema: main table is required")
	}
	if nav.MainTableSchema.PrimaryKey == "" {
		return nil, fmt.Errorf("schema: primary key of %q is required", nav.MainTable)
	}

	c := &Context{
		opts:            opts,
		source:          cloneDiscovery(d),
		mainTable:       nav.MainTable,
		primaryKey:      nav.MainTableSchema.PrimaryKey,
		columns:         append([]Column(nil), nav.MainTableSchema.Columns...),
		columnSQL:       make(map[string]string),
		metadataFields:  make(map[string]bool),
		stringFields:    make(map[string]bool),
		idFields:        make(map[string]bool),
		entityFields:    make(map[string]bool),
		timestampFields: make(map[string]bool),
		navByKey:        make(map[string]int),
	}

	used := map[string]struct{}{opts.MainAlias: {}}
	for _, t := range nav.Tables {
		if t.Key == "" || t.TableName == "" || t.PrimaryKey == "" || t.NameColumn == "" {
			return nil, fmt.Errorf("schema: navigation table %+v is incomplete", t)
		}
		if _, dup := c.navByKey[t.Key]; dup {
			return nil, fmt.Errorf("schema: duplicate navigation key %q", t.Key)
		}
		alias := GenerateAlias(t.Key, used)
		used[alias] = struct{}{}
		c.navByKey[t.Key] = len(c.navigation)
		c.navigation = append(c.navigation, NavigationEntry{NavigationTable: t, Alias: alias})
	}

	if len(d.Mapping) > 0 {
		for k, v := range d.Mapping {
			c.columnSQL[k] = v
		}
	} else {
		hasMetadata := false
		for _, col := range c.columns {
			c.columnSQL[col.Name] = c.qualify(col.Name)
			if col.Name == opts.MetadataField {
				hasMetadata = true
			}
		}
		if hasMetadata {
			c.columnSQL["metadata_text"] = fmt.Sprintf("jsonb_values_to_text(%s)", c.qualify(opts.MetadataField))
		}
	}
	for _, n := range c.navigation {
		if _, ok := c.columnSQL[n.Key]; !ok {
			c.columnSQL[n.Key] = n.Alias + "." + n.NameColumn
		}
	}

	for _, key := range d.MetadataFields {
		if key == "" || IsLockKey(key) {
			continue
		}
		c.metadataFields[key] = true
	}

	cls := d.Classifications
	if cls == nil {
		derived := Classify(c.columns, nav.Tables)
		cls = &derived
	}
	for _, f := range cls.StringFields {
		c.stringFields[f] = true
	}
	for _, f := range cls.IDFields {
		c.idFields[f] = true
	}
	for _, f := range cls.EntityFields {
		c.entityFields[f] = true
	}
	for _, col := range c.columns {
		if IsTimestampType(col.DataType) {
			c.timestampFields[col.Name] = true
		}
	}

	fp, err := fingerprint(c.source)
	if err != nil {
		return nil, err
	}
	c.fingerprint = fp
	return c, nil
}

func (c *Context) qualify(column string) string {
	return c.opts.MainAlias + "." + column
}

// Options returns the options the Context was built with, defaults filled.
func (c *Context) Options() Options { return c.opts }

// Discovery returns a copy of the Discovery the Context was built from.
func (c *Context) Discovery() Discovery { return cloneDiscovery(c.source) }

// MainTable returns the main table name.
func (c *Context) MainTable() string { return c.mainTable }

// MainAlias returns the main table alias used in FROM.
func (c *Context) MainAlias() string { return c.opts.MainAlias }

// PrimaryKey returns the main table's primary key column.
func (c *Context) PrimaryKey() string { return c.primaryKey }

// Columns returns the main table's columns in ordinal order.
func (c *Context) Columns() []Column {
	return append([]Column(nil), c.columns...)
}

// ColumnSQL returns the SQL expression mapped to a logical field name.
func (c *Context) ColumnSQL(name string) (string, bool) {
	expr, ok := c.columnSQL[name]
	return expr, ok
}

// MetadataColumn returns the SQL reference to the JSON metadata column.
func (c *Context) MetadataColumn() string {
	if expr, ok := c.columnSQL[c.opts.MetadataField]; ok {
		return expr
	}
	return c.qualify(c.opts.MetadataField)
}

// IsMetadataField reports whether key is a known metadata key, either
// top-level ("tag") or one level nested ("detector.layer").
func (c *Context) IsMetadataField(key string) bool { return c.metadataFields[key] }

// IsStringField reports whether name is classified as text.
func (c *Context) IsStringField(name string) bool { return c.stringFields[name] }

// IsIDField reports whether name is classified as an id column.
func (c *Context) IsIDField(name string) bool { return c.idFields[name] }

// IsEntityField reports whether name is a navigation entity key.
func (c *Context) IsEntityField(name string) bool { return c.entityFields[name] }

// IsTimestampField reports whether name is a date or timestamp column.
// The last-edited field always counts.
func (c *Context) IsTimestampField(name string) bool {
	return c.timestampFields[name] || name == c.opts.LastEditedField
}

// MetadataFields returns the known metadata keys, sorted.
func (c *Context) MetadataFields() []string {
	return sortedKeys(c.metadataFields)
}

// FieldNames returns every mapped field name and metadata key, sorted
// and without duplicates.
func (c *Context) FieldNames() []string {
	all := make(map[string]bool, len(c.columnSQL)+len(c.metadataFields))
	for k := range c.columnSQL {
		all[k] = true
	}
	for k := range c.metadataFields {
		all[k] = true
	}
	return sortedKeys(all)
}

// Navigation returns the navigation tables in join order.
func (c *Context) Navigation() []NavigationEntry {
	return append([]NavigationEntry(nil), c.navigation...)
}

// NavigationFor returns the navigation entry for an entity key.
func (c *Context) NavigationFor(key string) (NavigationEntry, bool) {
	i, ok := c.navByKey[key]
	if !ok {
		return NavigationEntry{}, false
	}
	return c.navigation[i], true
}

// Fingerprint is a stable content hash of the Discovery. Two Contexts
// built from equivalent discoveries share a fingerprint.
func (c *Context) Fingerprint() string { return c.fingerprint }

// SortableFields lists the names a caller may pass as sort_by: plain
// columns other than foreign keys and the metadata column, "<key>_name"
// for each foreign key ending in _id, and "metadata.<key>" for every
// metadata key. The result is sorted.
func (c *Context) SortableFields() []string {
	var fields []string
	for _, col := range c.columns {
		switch {
		case col.IsForeignKey:
			if base, ok := strings.CutSuffix(col.Name, "_id"); ok {
				fields = append(fields, base+"_name")
			}
		case col.Name == c.opts.MetadataField:
		default:
			fields = append(fields, col.Name)
		}
	}
	for _, key := range c.MetadataFields() {
		fields = append(fields, c.opts.MetadataField+"."+key)
	}
	sort.Strings(fields)
	return fields
}

// fingerprint hashes a canonical JSON form of d with domain separation.
// Format: SHA256(domain + 0x00 + json)
func fingerprint(d Discovery) (string, error) {
	canon := cloneDiscovery(d)
	sort.Strings(canon.MetadataFields)
	if canon.Classifications != nil {
		sort.Strings(canon.Classifications.StringFields)
		sort.Strings(canon.Classifications.IDFields)
		sort.Strings(canon.Classifications.EntityFields)
	}

	// encoding/json sorts map keys, so Mapping is already canonical.
	data, err := json.Marshal(canon)
	if err != nil {
		return "", fmt.Errorf("schema: fingerprint: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func cloneDiscovery(d Discovery) Discovery {
	out := Discovery{
		MetadataFields: append([]string(nil), d.MetadataFields...),
		Navigation: Navigation{
			MainTable: d.Navigation.MainTable,
			Tables:    append([]NavigationTable(nil), d.Navigation.Tables...),
			MainTableSchema: MainTableSchema{
				Columns:    append([]Column(nil), d.Navigation.MainTableSchema.Columns...),
				PrimaryKey: d.Navigation.MainTableSchema.PrimaryKey,
			},
		},
	}
	if d.Mapping != nil {
		out.Mapping = make(map[string]string, len(d.Mapping))
		for k, v := range d.Mapping {
			out.Mapping[k] = v
		}
	}
	if d.Classifications != nil {
		out.Classifications = &Classifications{
			StringFields: append([]string(nil), d.Classifications.StringFields...),
			IDFields:     append([]string(nil), d.Classifications.IDFields...),
			EntityFields: append([]string(nil), d.Classifications.EntityFields...),
		}
	}
	return out
}
