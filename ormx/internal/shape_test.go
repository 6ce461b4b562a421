package internal

import (
	"testing"

	"gorm.io/gorm"
)

type withFields struct {
	Identity  string
	TableName string
}

type withMethods struct{}

func (withMethods) Identity() string  { return "ident" }
func (*withMethods) TableName() string { return "tbl" }

type row struct{ ID int }

func TestIdentity(t *testing.T) {
	var nilMethods *withMethods

	tests := []struct {
		name      string
		value     any
		wantIdent string
		wantTable string
	}{
		{"fields", withFields{Identity: "a", TableName: "b"}, "a", "b"},
		{"pointer fields", &withFields{Identity: "a"}, "a", ""},
		{"value methods", withMethods{}, "ident", ""},
		{"pointer methods", &withMethods{}, "ident", "tbl"},
		{"nil pointer", nilMethods, "", ""},
		{"map", map[string]string{"Identity": "x"}, "", ""},
		{"nil", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, table := Identity(tt.value)
			if ident != tt.wantIdent || table != tt.wantTable {
				t.Errorf("Identity() = (%q, %q), want (%q, %q)", ident, table, tt.wantIdent, tt.wantTable)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"exact", func(*gorm.DB) any { return 1 }, true},
		{"typed result", func(*gorm.DB) *row { return &row{} }, true},
		{"two inputs", func(*gorm.DB, int) any { return 1 }, false},
		{"no result", func(*gorm.DB) {}, false},
		{"variadic", func(...*gorm.DB) any { return 1 }, false},
		{"not a func", "*gorm.DB", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Factory(tt.value); ok != tt.want {
				t.Errorf("Factory() ok = %v, want %v", ok, tt.want)
			}
		})
	}

	f, _ := Factory(func(*gorm.DB) *row { return nil })
	if got := f(nil); got != nil {
		t.Errorf("typed nil result = %#v, want nil", got)
	}
}

func TestConstructor(t *testing.T) {
	if _, ok := Constructor(func() *row { return &row{} }); !ok {
		t.Error("Constructor(func() *row) not accepted")
	}
	for _, v := range []any{func() row { return row{} }, func(int) *row { return nil }, func() *int { return nil }, 3} {
		if _, ok := Constructor(v); ok {
			t.Errorf("Constructor(%T) accepted", v)
		}
	}
}

func TestHasFactoryMarker(t *testing.T) {
	if !HasFactoryMarker(func(*gorm.DB) {}) {
		t.Error("marker not found in func(*gorm.DB)")
	}
	if HasFactoryMarker(func() {}) || HasFactoryMarker(nil) {
		t.Error("marker found where absent")
	}
}

func TestIsNil(t *testing.T) {
	var p *row
	var f func()
	if !IsNil(nil) || !IsNil(p) || !IsNil(f) {
		t.Error("IsNil missed a nil")
	}
	if IsNil(0) || IsNil(row{}) {
		t.Error("IsNil reported a value as nil")
	}
}
