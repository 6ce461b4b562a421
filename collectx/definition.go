package collectx

import (
	"fmt"

	"go.eggybyte.com/eggdata/collectx/internal"
)

// DefaultConnection is the connection a definition uses when it names none.
const DefaultConnection = "default"

// Attribute describes one field of a collection.
// Type is one of string, text, integer, number, float, boolean, json, datetime.
type Attribute struct {
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required" json:"required"`
	Unique   bool   `yaml:"unique" json:"unique"`
}

// Definition declares a collection before it is bound to a connection.
type Definition struct {
	Identity   string               `yaml:"identity" json:"identity"`
	TableName  string               `yaml:"tableName" json:"tableName"`
	Connection string               `yaml:"connection" json:"connection"`
	PrimaryKey string               `yaml:"primaryKey" json:"primaryKey"`
	Attributes map[string]Attribute `yaml:"attributes" json:"attributes"`
}

// Table returns the backing table name, TableName or else Identity.
func (d Definition) Table() string {
	if d.TableName != "" {
		return d.TableName
	}
	return d.Identity
}

// ConnectionName returns the connection the collection binds to.
func (d Definition) ConnectionName() string {
	if d.Connection != "" {
		return d.Connection
	}
	return DefaultConnection
}

// PrimaryKeyName returns the primary key column, default id.
func (d Definition) PrimaryKeyName() string {
	if d.PrimaryKey != "" {
		return d.PrimaryKey
	}
	return "id"
}

// Validate checks names and attribute types.
func (d Definition) Validate() error {
	if d.Identity == "" {
		return fmt.Errorf("collection identity is required")
	}
	if !internal.ValidIdent(d.Table()) {
		return fmt.Errorf("collection %s: invalid table name %q", d.Identity, d.Table())
	}
	for name, attr := range d.Attributes {
		if !internal.ValidIdent(name) {
			return fmt.Errorf("collection %s: invalid attribute name %q", d.Identity, name)
		}
		if !internal.KnownType(attr.Type) {
			return fmt.Errorf("collection %s: attribute %s has unsupported type %q", d.Identity, name, attr.Type)
		}
	}
	return nil
}

func (d Definition) columns() []internal.Column {
	cols := make([]internal.Column, 0, len(d.Attributes))
	for name, attr := range d.Attributes {
		cols = append(cols, internal.Column{
			Name:     name,
			Type:     attr.Type,
			Required: attr.Required,
			Unique:   attr.Unique,
		})
	}
	return cols
}

// CreateTableSQL renders the create-if-absent statement for a SQL dialect.
func (d Definition) CreateTableSQL(dialect string) (string, error) {
	return internal.CreateTable(dialect, d.Table(), d.PrimaryKeyName(), d.columns())
}
