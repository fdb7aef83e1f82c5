package schema

import (
	"sort"
	"strings"
)

var stringTypes = map[string]bool{
	"text":              true,
	"varchar":           true,
	"character varying": true,
	"character":         true,
	"char":              true,
	"uuid":              true,
	"name":              true,
	"inet":              true,
	"cidr":              true,
	"macaddr":           true,
	"macaddr8":          true,
	"xml":               true,
}

// parameterized string types, matched as "<type>(" or "<type> ("
var sizedStringTypes = []string{"varchar", "character varying", "character", "char"}

// IsStringType reports whether a Postgres data type holds text for
// validation purposes. Matching is case-insensitive and accepts length
// specifiers such as varchar(255).
func IsStringType(dataType string) bool {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	if stringTypes[dt] {
		return true
	}
	for _, st := range sizedStringTypes {
		if strings.HasPrefix(dt, st+"(") || strings.HasPrefix(dt, st+" (") {
			return true
		}
	}
	return false
}

// IsTimestampType reports whether a data type is a date or timestamp.
func IsTimestampType(dataType string) bool {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	return dt == "date" || strings.HasPrefix(dt, "timestamp")
}

// IsLockKey reports whether a metadata key is a field-lock marker.
// Top-level markers look like "__<field>__lock__"; a nested key is a
// marker if any part of it contains "__lock__".
func IsLockKey(key string) bool {
	if strings.Contains(key, ".") {
		return strings.Contains(key, "__lock__")
	}
	return strings.HasPrefix(key, "__") && strings.HasSuffix(key, "__lock__")
}

// Classify derives field classifications from column metadata.
//
//   - String fields: columns with a string data type, plus every
//     navigation key and "<key>_name".
//   - ID fields: foreign-key columns and columns ending in "_id".
//   - Entity fields: navigation keys.
//
// Each list is sorted.
func Classify(columns []Column, tables []NavigationTable) Classifications {
	stringSet := make(map[string]bool)
	idSet := make(map[string]bool)
	entitySet := make(map[string]bool)

	for _, col := range columns {
		if IsStringType(col.DataType) {
			stringSet[col.Name] = true
		}
		if col.IsForeignKey || strings.HasSuffix(col.Name, "_id") {
			idSet[col.Name] = true
		}
	}
	for _, nav := range tables {
		stringSet[nav.Key] = true
		stringSet[nav.Key+"_name"] = true
		entitySet[nav.Key] = true
	}

	return Classifications{
		StringFields: sortedKeys(stringSet),
		IDFields:     sortedKeys(idSet),
		EntityFields: sortedKeys(entitySet),
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
