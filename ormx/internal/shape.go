// Package internal holds the reflection helpers behind model classification.
package internal

import (
	"reflect"
	"strings"

	"gorm.io/gorm"
)

// FactoryMarker is the type-signature token identifying GORM factories.
const FactoryMarker = "*gorm.DB"

var gormDBType = reflect.TypeOf((*gorm.DB)(nil))

func indirect(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// StringField returns the named string field of a struct or struct pointer.
func StringField(v any, name string) string {
	rv, ok := indirect(v)
	if !ok || rv.Kind() != reflect.Struct {
		return ""
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || f.Kind() != reflect.String {
		return ""
	}
	return f.String()
}

// StringMethod calls a niladic method returning string, if v has one.
func StringMethod(v any, name string) string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return ""
	}
	m := rv.MethodByName(name)
	if !m.IsValid() {
		return ""
	}
	t := m.Type()
	if t.NumIn() != 0 || t.NumOut() != 1 || t.Out(0).Kind() != reflect.String {
		return ""
	}
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return ""
	}
	return m.Call(nil)[0].String()
}

// Identity returns the identity and table name a value exposes through
// fields or methods of those names.
func Identity(v any) (identity, table string) {
	identity = StringField(v, "Identity")
	if identity == "" {
		identity = StringMethod(v, "Identity")
	}
	table = StringField(v, "TableName")
	if table == "" {
		table = StringMethod(v, "TableName")
	}
	return identity, table
}

// Field returns the named field of a struct or struct pointer.
func Field(v any, name string) (any, bool) {
	rv, ok := indirect(v)
	if !ok || rv.Kind() != reflect.Struct {
		return nil, false
	}
	f := rv.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}
	return f.Interface(), true
}

// IsFunc reports whether v is a non-nil func.
func IsFunc(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

// Signature returns the textual type signature of v.
func Signature(v any) string {
	if v == nil {
		return ""
	}
	return reflect.TypeOf(v).String()
}

// HasFactoryMarker reports whether v's signature mentions *gorm.DB.
func HasFactoryMarker(v any) bool {
	return strings.Contains(Signature(v), FactoryMarker)
}

// Factory adapts any func(*gorm.DB) T with a single result.
func Factory(v any) (func(*gorm.DB) any, bool) {
	if f, ok := v.(func(*gorm.DB) any); ok {
		return f, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, false
	}
	t := rv.Type()
	if t.IsVariadic() || t.NumIn() != 1 || t.In(0) != gormDBType || t.NumOut() != 1 {
		return nil, false
	}
	return func(db *gorm.DB) any {
		return resultOf(rv.Call([]reflect.Value{reflect.ValueOf(db)})[0])
	}, true
}

// Constructor adapts a niladic func returning a struct pointer.
func Constructor(v any) (func() any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, false
	}
	t := rv.Type()
	if t.IsVariadic() || t.NumIn() != 0 || t.NumOut() != 1 {
		return nil, false
	}
	out := t.Out(0)
	if out.Kind() != reflect.Ptr || out.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	return func() any {
		return resultOf(rv.Call(nil)[0])
	}, true
}

func resultOf(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			return nil
		}
	}
	return rv.Interface()
}

// IsNil reports whether v is nil or a typed nil.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
