package internal

import (
	"strings"
	"testing"
)

func TestCreateTable(t *testing.T) {
	cols := []Column{
		{Name: "total", Type: "float"},
		{Name: "email", Type: "string", Required: true, Unique: true},
	}

	tests := []struct {
		name    string
		dialect string
		pk      string
		cols    []Column
		want    string
	}{
		{
			name:    "postgres auto pk",
			dialect: "postgres",
			cols:    cols,
			want:    `CREATE TABLE IF NOT EXISTS "orders" ("id" BIGSERIAL PRIMARY KEY, "email" TEXT NOT NULL UNIQUE, "total" DOUBLE PRECISION)`,
		},
		{
			name:    "sqlite auto pk",
			dialect: "sqlite",
			cols:    cols,
			want:    `CREATE TABLE IF NOT EXISTS "orders" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "email" TEXT NOT NULL UNIQUE, "total" REAL)`,
		},
		{
			name:    "declared pk",
			dialect: "sqlite",
			pk:      "code",
			cols:    []Column{{Name: "code", Type: "string", Required: true}},
			want:    `CREATE TABLE IF NOT EXISTS "orders" ("code" TEXT PRIMARY KEY)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTable(tt.dialect, "orders", tt.pk, tt.cols)
			if err != nil {
				t.Fatalf("CreateTable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CreateTable() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCreateTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		table   string
		cols    []Column
		want    string
	}{
		{name: "dialect", dialect: "oracle", table: "t", want: "unsupported dialect"},
		{name: "table", dialect: "sqlite", table: "t; DROP", want: "invalid table name"},
		{name: "column", dialect: "sqlite", table: "t", cols: []Column{{Name: "a b", Type: "string"}}, want: "invalid column name"},
		{name: "type", dialect: "sqlite", table: "t", cols: []Column{{Name: "a", Type: "blob"}}, want: "unsupported type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateTable(tt.dialect, tt.table, "", tt.cols)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("CreateTable() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	if got := Quote(`a"b`); got != `"a""b"` {
		t.Errorf("Quote() = %s", got)
	}
}
