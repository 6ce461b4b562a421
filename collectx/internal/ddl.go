// Package internal provides schema helpers for collectx adapters.
package internal

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether s can be used unquoted-safe as a table or column name.
func ValidIdent(s string) bool {
	return identRe.MatchString(s)
}

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Required bool
	Unique   bool
}

var columnTypes = map[string]map[string]string{
	"postgres": {
		"string":   "TEXT",
		"text":     "TEXT",
		"integer":  "BIGINT",
		"number":   "DOUBLE PRECISION",
		"float":    "DOUBLE PRECISION",
		"boolean":  "BOOLEAN",
		"json":     "JSONB",
		"datetime": "TIMESTAMPTZ",
	},
	"sqlite": {
		"string":   "TEXT",
		"text":     "TEXT",
		"integer":  "INTEGER",
		"number":   "REAL",
		"float":    "REAL",
		"boolean":  "INTEGER",
		"json":     "TEXT",
		"datetime": "DATETIME",
	},
}

var autoPrimaryKey = map[string]string{
	"postgres": "BIGSERIAL PRIMARY KEY",
	"sqlite":   "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// KnownType reports whether the attribute type is supported.
func KnownType(t string) bool {
	_, ok := columnTypes["postgres"][strings.ToLower(t)]
	return ok
}

// Quote quotes an identifier for both supported dialects.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// CreateTable renders a CREATE TABLE IF NOT EXISTS statement.
// When no column is named pk, an auto-increment primary key column pk is added.
// Columns are emitted in name order after the primary key.
func CreateTable(dialect, table, pk string, cols []Column) (string, error) {
	types, ok := columnTypes[dialect]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
	if !ValidIdent(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	if pk == "" {
		pk = "id"
	}

	sorted := append([]Column(nil), cols...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var defs []string
	hasPK := false
	for _, c := range sorted {
		if c.Name == pk {
			hasPK = true
		}
	}
	if !hasPK {
		defs = append(defs, Quote(pk)+" "+autoPrimaryKey[dialect])
	}

	for _, c := range sorted {
		if !ValidIdent(c.Name) {
			return "", fmt.Errorf("invalid column name %q", c.Name)
		}
		sqlType, ok := types[strings.ToLower(c.Type)]
		if !ok {
			return "", fmt.Errorf("column %s: unsupported type %q", c.Name, c.Type)
		}
		def := Quote(c.Name) + " " + sqlType
		if c.Name == pk {
			def += " PRIMARY KEY"
		} else {
			if c.Required {
				def += " NOT NULL"
			}
			if c.Unique {
				def += " UNIQUE"
			}
		}
		defs = append(defs, def)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", Quote(table), strings.Join(defs, ", ")), nil
}
