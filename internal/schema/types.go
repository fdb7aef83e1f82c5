package schema

// Column describes one column of the main table.
type Column struct {
	Name         string `json:"name" yaml:"name"`
	DataType     string `json:"data_type" yaml:"data_type"`
	IsForeignKey bool   `json:"is_foreign_key,omitempty" yaml:"is_foreign_key,omitempty"`
}

// NavigationTable is a lookup table referenced from the main table by a
// <key>_id foreign key.
type NavigationTable struct {
	Key        string `json:"key" yaml:"key"`
	TableName  string `json:"table_name" yaml:"table_name"`
	PrimaryKey string `json:"primary_key" yaml:"primary_key"`
	NameColumn string `json:"name_column" yaml:"name_column"`
}

// MainTableSchema lists the main table's columns in ordinal order.
type MainTableSchema struct {
	Columns    []Column `json:"columns" yaml:"columns"`
	PrimaryKey string   `json:"primary_key" yaml:"primary_key"`
}

// Navigation is the join graph rooted at the main table. Tables keep the
// order the collaborator reported; alias assignment depends on it.
type Navigation struct {
	MainTable       string            `json:"main_table" yaml:"main_table"`
	Tables          []NavigationTable `json:"tables,omitempty" yaml:"tables,omitempty"`
	MainTableSchema MainTableSchema   `json:"main_table_schema" yaml:"main_table_schema"`
}

// Classifications groups field names by the validation rules they obey.
type Classifications struct {
	StringFields []string `json:"string_fields,omitempty" yaml:"string_fields,omitempty"`
	IDFields     []string `json:"id_fields,omitempty" yaml:"id_fields,omitempty"`
	EntityFields []string `json:"entity_fields,omitempty" yaml:"entity_fields,omitempty"`
}

// Discovery is the raw output of a schema discovery collaborator.
//
// Mapping and Classifications are optional. When Mapping is empty, every
// main-table column maps to "<alias>.<column>" and a metadata column also
// yields "metadata_text". When Classifications is nil it is derived from
// column data types with Classify.
type Discovery struct {
	Mapping         map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	MetadataFields  []string          `json:"metadata_fields,omitempty" yaml:"metadata_fields,omitempty"`
	Classifications *Classifications  `json:"classifications,omitempty" yaml:"classifications,omitempty"`
	Navigation      Navigation        `json:"navigation" yaml:"navigation"`
}

// Options names the columns that carry special meaning for translation.
type Options struct {
	// MainAlias is the alias of the main table in FROM. Default "d".
	MainAlias string

	// MetadataField is the JSON object column. Default "metadata".
	MetadataField string

	// NameField is the entity's display name, searched first. Default "name".
	NameField string

	// UUIDField is searched only when the search term looks like a UUID.
	// Default "uuid".
	UUIDField string

	// LastEditedField gets NULL guards and "field:" means "has been
	// edited". Default "last_edited_at".
	LastEditedField string
}

// DefaultOptions returns the conventional column names.
func DefaultOptions() Options {
	return Options{
		MainAlias:       "d",
		MetadataField:   "metadata",
		NameField:       "name",
		UUIDField:       "uuid",
		LastEditedField: "last_edited_at",
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MainAlias == "" {
		o.MainAlias = def.MainAlias
	}
	if o.MetadataField == "" {
		o.MetadataField = def.MetadataField
	}
	if o.NameField == "" {
		o.NameField = def.NameField
	}
	if o.UUIDField == "" {
		o.UUIDField = def.UUIDField
	}
	if o.LastEditedField == "" {
		o.LastEditedField = def.LastEditedField
	}
	return o
}
