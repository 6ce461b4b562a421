package ormx

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"go.eggybyte.com/eggdata/cachex"
	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/core/errors"
	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/core/utils"
	"go.eggybyte.com/eggdata/storex"
)

func initRedis(ctx context.Context, cfg *RedisConfig, logger log.Logger) (*cachex.Client, error) {
	opts := cfg.Options
	if opts.Logger == nil {
		opts.Logger = logger
	}
	client, err := cachex.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(CodeConnectivity, "ormx.redis", err)
	}
	return client, nil
}

func initGORM(ctx context.Context, cfg *GORMConfig, factories map[string]Factory, logger log.Logger) (*GORMConnection, error) {
	names := utils.SortedKeys(factories)
	logger.Info("initialising with", log.Strs("models", names))

	opts := cfg.GORMOptions
	if opts.Logger == nil {
		opts.Logger = logger
	}
	store, err := storex.NewGORMStore(opts)
	if err != nil {
		return nil, errors.Wrap(CodeConstruction, "ormx.gorm", err)
	}
	fail := func(err error) (*GORMConnection, error) {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("close after failed setup", log.Str("error", cerr.Error()))
		}
		return nil, err
	}

	entities, err := buildEntities(store.GetDB(), names, factories)
	if err != nil {
		return fail(err)
	}

	if err := store.Ping(ctx); err != nil {
		return fail(errors.Wrap(CodeConnectivity, "ormx.gorm", err))
	}

	// Syncs start only after authentication and all run to completion.
	var g errgroup.Group
	syncErrs := make([]error, len(names))
	for i, name := range names {
		g.Go(func() error {
			if err := store.Migrate(ctx, entities[name]); err != nil {
				syncErrs[i] = errors.Wrapf(CodeSync, "ormx.gorm", err, "sync %s", name)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := errors.Join(syncErrs...); err != nil {
		return fail(err)
	}

	logger.Info("synchronised", log.Int("entities", len(entities)))
	return &GORMConnection{DB: store.GetDB(), Store: store, Entities: entities}, nil
}

// buildEntities runs every factory against db, then lets associators wire
// relationships against the complete entity map.
func buildEntities(db *gorm.DB, names []string, factories map[string]Factory) (map[string]any, error) {
	entities := make(map[string]any, len(names))
	for _, name := range names {
		entity, err := callFactory(db, factories[name])
		if err != nil {
			return nil, errors.Wrapf(CodeConstruction, "ormx.gorm", err, "factory %s", name)
		}
		entities[name] = entity
	}

	for _, name := range names {
		if a, ok := entities[name].(Associator); ok {
			if err := callAssociate(a, entities); err != nil {
				return nil, errors.Wrapf(CodeConstruction, "ormx.gorm", err, "associate %s", name)
			}
		}
	}
	return entities, nil
}

func callAssociate(a Associator, entities map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Associate(entities)
}

func callFactory(db *gorm.DB, f Factory) (entity any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	entity = f(db)
	if entity == nil {
		return nil, fmt.Errorf("factory returned nil")
	}
	return entity, nil
}

func initEntity(ctx context.Context, cfg *EntityConfig, ctors map[string]EntityFunc, logger log.Logger) (conn *EntityConnection, err error) {
	defer func() {
		if r := recover(); r != nil {
			conn = nil
			err = errors.Wrapf(CodeConstruction, "ormx.entity", fmt.Errorf("panic: %v", r), "open connection")
		}
	}()

	names := utils.SortedKeys(ctors)
	logger.Info("initialising with", log.Strs("models", names))

	entities := make(map[string]any, len(names))
	set := make([]any, 0, len(names))
	for _, name := range names {
		entity := ctors[name]()
		if entity == nil {
			return nil, errors.Wrapf(CodeConstruction, "ormx.entity", fmt.Errorf("constructor returned nil"), "entity %s", name)
		}
		entities[name] = entity
		set = append(set, entity)
	}

	opts := cfg.GORMOptions
	if opts.Logger == nil {
		opts.Logger = logger
	}
	store, err := storex.NewGORMStore(opts)
	if err != nil {
		return nil, errors.Wrap(CodeConstruction, "ormx.entity", err)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(CodeConnectivity, "ormx.entity", err)
	}

	if cfg.Synchronize && len(set) > 0 {
		if err := store.Migrate(ctx, set...); err != nil {
			_ = store.Close()
			return nil, errors.Wrap(CodeSync, "ormx.entity", err)
		}
	}

	return &EntityConnection{Store: store, Entities: entities}, nil
}

func initCollection(ctx context.Context, cfg *CollectionConfig, defs map[string]collectx.Definition, logger log.Logger) (*collectx.Ontology, error) {
	names := utils.SortedKeys(defs)
	logger.Info("initialising with", log.Strs("models", names))

	container := collectx.New()
	for _, name := range names {
		if err := container.LoadCollection(defs[name]); err != nil {
			return nil, errors.Wrapf(CodeConstruction, "ormx.collection", err, "load %s", name)
		}
	}

	ontology, err := container.Initialize(ctx, collectx.Config{
		Connections: cfg.Connections,
		Adapters:    cfg.Adapters,
		Logger:      logger,
	})
	if err != nil {
		return nil, errors.Wrap(collectionCode(err), "ormx.collection", err)
	}

	if ontology == nil || len(ontology.Connections) == 0 || len(ontology.Collections) == 0 {
		err := errors.New(CodeMalformedResult, "expected ontology with connections and collections")
		logger.Error(err, "malformed ontology",
			log.Strs("connections", ontology.ConnectionNames()),
			log.Strs("collections", ontology.CollectionNames()))
		if terr := ontology.Teardown(ctx); terr != nil {
			logger.Warn("teardown of malformed ontology failed", log.Str("error", terr.Error()))
		}
		return nil, err
	}

	logger.Info("initialised with", log.Strs("collections", ontology.CollectionNames()))
	return ontology, nil
}

// collectionCode classifies an Initialize failure. With several failed
// connections the first matching case wins: configuration and adapter
// panics, then schema creation, then connectivity.
func collectionCode(err error) errors.Code {
	switch {
	case errors.Is(err, collectx.ErrInvalidConfig), errors.Is(err, collectx.ErrAdapterPanic):
		return CodeConstruction
	case errors.Is(err, collectx.ErrSchema):
		return CodeSync
	default:
		return CodeConnectivity
	}
}
