package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStringType(t *testing.T) {
	tests := []struct {
		dataType string
		want     bool
	}{
		{"text", true},
		{"TEXT", true},
		{"varchar", true},
		{"character varying", true},
		{"character", true},
		{"char", true},
		{"uuid", true},
		{"name", true},
		{"inet", true},
		{"cidr", true},
		{"macaddr", true},
		{"macaddr8", true},
		{"xml", true},
		{"varchar(255)", true},
		{"varchar (255)", true},
		{"character varying(32)", true},
		{"char(10)", true},
		{"integer", false},
		{"jsonb", false},
		{"timestamp with time zone", false},
		{"character_data", false},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStringType(tt.dataType))
		})
	}
}

func TestIsTimestampType(t *testing.T) {
	assert.True(t, IsTimestampType("timestamp"))
	assert.True(t, IsTimestampType("timestamp with time zone"))
	assert.True(t, IsTimestampType("date"))
	assert.False(t, IsTimestampType("time"))
	assert.False(t, IsTimestampType("text"))
}

func TestIsLockKey(t *testing.T) {
	assert.True(t, IsLockKey("__status__lock__"))
	assert.True(t, IsLockKey("detector.__layer__lock__"))
	assert.True(t, IsLockKey("__detector__lock__.x"))
	assert.False(t, IsLockKey("status"))
	assert.False(t, IsLockKey("detector.layer"))
	assert.False(t, IsLockKey("status__lock__"))
}

func TestClassify(t *testing.T) {
	cols := []Column{
		{Name: "entity_id", DataType: "integer"},
		{Name: "name", DataType: "text"},
		{Name: "status", DataType: "varchar(20)"},
		{Name: "size", DataType: "bigint"},
		{Name: "owner", DataType: "integer", IsForeignKey: true},
		{Name: "category_id", DataType: "integer", IsForeignKey: true},
	}
	tables := []NavigationTable{
		{Key: "category", TableName: "categories", PrimaryKey: "category_id", NameColumn: "name"},
	}

	got := Classify(cols, tables)

	assert.Equal(t, []string{"category", "category_name", "name", "status"}, got.StringFields)
	assert.Equal(t, []string{"category_id", "entity_id", "owner"}, got.IDFields)
	assert.Equal(t, []string{"category"}, got.EntityFields)
}
