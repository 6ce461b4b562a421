package ormx

import (
	"context"
	"time"

	"go.eggybyte.com/eggdata/cachex"
	"go.eggybyte.com/eggdata/collectx"
	"go.eggybyte.com/eggdata/configx"
	"go.eggybyte.com/eggdata/core/log"
	"go.eggybyte.com/eggdata/logx"
	"go.eggybyte.com/eggdata/storex"
)

// EnvPrefix is the prefix of every environment variable read by LoadSettings.
const EnvPrefix = "EGGDATA_"

// Settings is the bindable form of Config. A section with Enabled false
// is left out of Config entirely.
type Settings struct {
	LogLevel  string `env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" default:"logfmt" validate:"oneof=logfmt json"`

	Redis      RedisSettings      `envPrefix:"REDIS_"`
	GORM       SQLSettings        `envPrefix:"GORM_"`
	Entity     EntitySettings     `envPrefix:"ENTITY_"`
	Collection CollectionSettings `envPrefix:"COLLECTION_"`
}

// RedisSettings configures the cache backend.
type RedisSettings struct {
	Enabled     bool          `env:"ENABLED" default:"false"`
	Skip        bool          `env:"SKIP" default:"false"`
	URL         string        `env:"URL"`
	Host        string        `env:"HOST" default:"localhost"`
	Port        int           `env:"PORT" default:"6379" validate:"min=1,max=65535"`
	Username    string        `env:"USERNAME"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" default:"0" validate:"min=0"`
	PoolSize    int           `env:"POOL_SIZE" default:"10" validate:"min=1"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" default:"5s"`
}

// SQLSettings configures a GORM store.
type SQLSettings struct {
	Enabled         bool          `env:"ENABLED" default:"false"`
	Skip            bool          `env:"SKIP" default:"false"`
	Driver          string        `env:"DRIVER" default:"sqlite" validate:"oneof=mysql mariadb postgres postgresql sqlite sqlite3"`
	DSN             string        `env:"DSN"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" default:"10" validate:"min=0"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" default:"100" validate:"min=1"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" default:"1h"`
	SlowThreshold   time.Duration `env:"SLOW_THRESHOLD" default:"100ms"`
}

// EntitySettings configures the entity-set backend.
type EntitySettings struct {
	SQLSettings
	Synchronize bool `env:"SYNCHRONIZE" default:"true"`
}

// CollectionSettings configures one collection connection.
type CollectionSettings struct {
	Enabled    bool   `env:"ENABLED" default:"false"`
	Skip       bool   `env:"SKIP" default:"false"`
	Connection string `env:"CONNECTION" default:"default" validate:"required"`
	Adapter    string `env:"ADAPTER" default:"memory" validate:"oneof=postgres sqlite redis memory noop"`
	URL        string `env:"URL"`
	MaxConns   string `env:"MAX_CONNS"`
}

func (s SQLSettings) options() storex.GORMOptions {
	return storex.GORMOptions{
		DSN:             s.DSN,
		Driver:          s.Driver,
		MaxIdleConns:    s.MaxIdleConns,
		MaxOpenConns:    s.MaxOpenConns,
		ConnMaxLifetime: s.ConnMaxLifetime,
		SlowThreshold:   s.SlowThreshold,
	}
}

// Config converts the settings into a Config.
func (s Settings) Config() Config {
	var cfg Config
	if r := s.Redis; r.Enabled {
		cfg.Redis = &RedisConfig{
			Skip: r.Skip,
			Options: cachex.Options{
				URL:         r.URL,
				Host:        r.Host,
				Port:        r.Port,
				Username:    r.Username,
				Password:    r.Password,
				DB:          r.DB,
				PoolSize:    r.PoolSize,
				DialTimeout: r.DialTimeout,
			},
		}
	}
	if g := s.GORM; g.Enabled {
		cfg.GORM = &GORMConfig{Skip: g.Skip, GORMOptions: g.options()}
	}
	if e := s.Entity; e.Enabled {
		cfg.Entity = &EntityConfig{Skip: e.Skip, Synchronize: e.Synchronize, GORMOptions: e.options()}
	}
	if c := s.Collection; c.Enabled {
		conn := collectx.ConnectionConfig{Adapter: c.Adapter, URL: c.URL}
		if c.MaxConns != "" {
			conn.Options = map[string]string{"max_conns": c.MaxConns}
		}
		cfg.Collection = &CollectionConfig{
			Skip:        c.Skip,
			Connections: map[string]collectx.ConnectionConfig{c.Connection: conn},
		}
	}
	return cfg
}

// Logger builds the logger described by the settings.
func (s Settings) Logger() log.Logger {
	return logx.New(
		logx.WithFormat(logx.Format(s.LogFormat)),
		logx.WithLevelString(s.LogLevel),
	)
}

// LoadSettings reads settings from an optional YAML or JSON file and then
// from EGGDATA_-prefixed environment variables, which win.
func LoadSettings(ctx context.Context, logger log.Logger, path string) (*Settings, error) {
	sources := make([]configx.Source, 0, 2)
	if path != "" {
		sources = append(sources, configx.NewFileSource(path, configx.FileOptions{}))
	}
	sources = append(sources, configx.NewEnvSource(configx.EnvOptions{Prefix: EnvPrefix}))
	return loadSettings(ctx, logger, sources...)
}

func loadSettings(ctx context.Context, logger log.Logger, sources ...configx.Source) (*Settings, error) {
	if logger == nil {
		logger = log.Nop()
	}
	mgr, err := configx.NewManager(ctx, configx.Options{Logger: logger, Sources: sources})
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := mgr.Bind(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
