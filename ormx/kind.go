package ormx

import (
	"gorm.io/gorm"

	"go.eggybyte.com/eggdata/collectx"
)

// Kind names a backend. The declaration order is the fixed order used for
// launching initializers, aggregating errors and listing backends.
type Kind string

const (
	KindRedis      Kind = "redis"
	KindGORM       Kind = "gorm"
	KindEntity     Kind = "entity"
	KindCollection Kind = "collection"
)

// Kinds lists every backend in fixed order.
var Kinds = []Kind{KindRedis, KindGORM, KindEntity, KindCollection}

// Models maps model names to model definitions of any shape.
type Models map[string]any

// Factory builds one entity against the shared GORM instance.
// The returned value must be a pointer to a GORM model.
type Factory func(db *gorm.DB) any

// EntityFunc constructs one entity of the entity backend.
type EntityFunc func() any

// Associator is implemented by GORM entities that wire relationships once
// every factory of the run has produced its entity.
type Associator interface {
	Associate(entities map[string]any) error
}

// Tagged is a model definition that declares its backend explicitly.
// Tagged values skip structural inspection.
type Tagged interface {
	BackendKind() Kind
}

type tagged struct {
	kind    Kind
	payload any
}

func (t tagged) BackendKind() Kind { return t.kind }

// AsCollection tags a collection definition.
func AsCollection(def collectx.Definition) Tagged {
	return tagged{kind: KindCollection, payload: def}
}

// AsFactory tags a GORM factory.
func AsFactory(f Factory) Tagged {
	return tagged{kind: KindGORM, payload: f}
}

// AsEntity tags an entity constructor.
func AsEntity(f EntityFunc) Tagged {
	return tagged{kind: KindEntity, payload: f}
}

func untag(t Tagged) any {
	if tv, ok := t.(tagged); ok {
		return tv.payload
	}
	return t
}
