package ormx

import (
	"strings"

	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/core/utils"
	"go.eggybyte.com/eggdata/ormx/internal"
)

// DefaultOmit is the omit list used when Options.Omit is nil.
var DefaultOmit = []string{"AccessToken"}

// Buckets holds the result of classification. A name appears in at most
// one bucket.
type Buckets struct {
	Unrecognized map[string]struct{}
	Collections  map[string]collectx.Definition
	Factories    map[string]Factory
	Entities     map[string]EntityFunc
}

// NewBuckets returns empty buckets.
func NewBuckets() *Buckets {
	return &Buckets{
		Unrecognized: make(map[string]struct{}),
		Collections:  make(map[string]collectx.Definition),
		Factories:    make(map[string]Factory),
		Entities:     make(map[string]EntityFunc),
	}
}

// Has reports whether name has been placed in any bucket.
func (b *Buckets) Has(name string) bool {
	if _, ok := b.Unrecognized[name]; ok {
		return true
	}
	if _, ok := b.Collections[name]; ok {
		return true
	}
	if _, ok := b.Factories[name]; ok {
		return true
	}
	_, ok := b.Entities[name]
	return ok
}

// UnrecognizedNames returns the unrecognized names, sorted.
func (b *Buckets) UnrecognizedNames() []string {
	return utils.SortedKeys(b.Unrecognized)
}

// Classify routes every non-nil, non-omitted model into b.
//
// Routing order:
//  1. Tagged values go to the bucket named by their tag.
//  2. A value exposing a non-empty Identity or TableName (field or method)
//     is a collection definition.
//  3. A func whose signature mentions *gorm.DB and has the factory shape
//     is a GORM factory.
//  4. A niladic func returning a struct pointer is an entity constructor.
//  5. Anything else is unrecognized and reported with a single warning.
func Classify(models Models, omit []string, b *Buckets, logger log.Logger) {
	if logger == nil {
		logger = log.Nop()
	}
	classifyInto(models, omit, b, logger)
	warnUnrecognized(b, logger)
}

// ClassifySets classifies every set whose name contains lowercase "model",
// in name order. "UserModel" does not match.
func ClassifySets(sets map[string]Models, omit []string, b *Buckets, logger log.Logger) {
	if logger == nil {
		logger = log.Nop()
	}
	classifySets(sets, omit, b, logger)
	warnUnrecognized(b, logger)
}

func classifySets(sets map[string]Models, omit []string, b *Buckets, logger log.Logger) {
	for _, name := range utils.SortedKeys(sets) {
		if !strings.Contains(name, "model") {
			logger.Debug("skipping model set", log.Str("set", name))
			continue
		}
		classifyInto(sets[name], omit, b, logger)
	}
}

func classifyInto(models Models, omit []string, b *Buckets, logger log.Logger) {
	for _, name := range utils.SortedKeys(models) {
		v := models[name]
		if internal.IsNil(v) || utils.Contains(omit, name) {
			continue
		}
		if b.Has(name) {
			logger.Debug("model already classified", log.Str("model", name))
			continue
		}
		b.route(name, v)
	}
}

func warnUnrecognized(b *Buckets, logger log.Logger) {
	if len(b.Unrecognized) == 0 {
		return
	}
	logger.Warn("failed registering models", log.Strs("models", b.UnrecognizedNames()))
}

func (b *Buckets) route(name string, v any) {
	if t, ok := v.(Tagged); ok {
		b.routeTagged(name, t)
		return
	}

	if def, ok := collectionShape(name, v, false); ok {
		b.Collections[name] = def
		return
	}

	if internal.IsFunc(v) {
		if internal.HasFactoryMarker(v) {
			if f, ok := internal.Factory(v); ok {
				b.Factories[name] = Factory(f)
				return
			}
		} else if f, ok := entityFunc(v); ok {
			b.Entities[name] = f
			return
		}
	}

	b.Unrecognized[name] = struct{}{}
}

func (b *Buckets) routeTagged(name string, t Tagged) {
	payload := untag(t)
	switch t.BackendKind() {
	case KindCollection:
		if def, ok := collectionShape(name, payload, true); ok {
			b.Collections[name] = def
			return
		}
	case KindGORM:
		if f, ok := payload.(Factory); ok && f != nil {
			b.Factories[name] = f
			return
		}
		if f, ok := internal.Factory(payload); ok {
			b.Factories[name] = Factory(f)
			return
		}
	case KindEntity:
		if f, ok := entityFunc(payload); ok {
			b.Entities[name] = f
			return
		}
	}
	b.Unrecognized[name] = struct{}{}
}

func entityFunc(v any) (EntityFunc, bool) {
	if f, ok := v.(EntityFunc); ok && f != nil {
		return f, true
	}
	if f, ok := internal.Constructor(v); ok {
		return EntityFunc(f), true
	}
	return nil, false
}

// collectionShape builds a definition from v. Without the explicit flag
// the value must expose a non-empty identity or table name.
func collectionShape(name string, v any, explicit bool) (collectx.Definition, bool) {
	var def collectx.Definition
	switch d := v.(type) {
	case collectx.Definition:
		def = d
	case *collectx.Definition:
		if d == nil {
			return def, false
		}
		def = *d
	case interface{ Definition() collectx.Definition }:
		def = d.Definition()
	default:
		def.Identity, def.TableName = internal.Identity(v)
		def.Connection = internal.StringField(v, "Connection")
		def.PrimaryKey = internal.StringField(v, "PrimaryKey")
		if attrs, ok := internal.Field(v, "Attributes"); ok {
			if m, ok := attrs.(map[string]collectx.Attribute); ok {
				def.Attributes = m
			}
		}
	}

	if !explicit && def.Identity == "" && def.TableName == "" {
		return def, false
	}
	if def.Identity == "" {
		def.Identity = name
	}
	return def, true
}
