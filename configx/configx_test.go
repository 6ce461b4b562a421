package configx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.eggybyte.com/eggdata/core/log"
)

type testLogger struct{}

func (l *testLogger) With(kv ...any) log.Logger              { return l }
func (l *testLogger) Debug(msg string, kv ...any)            {}
func (l *testLogger) Info(msg string, kv ...any)             {}
func (l *testLogger) Warn(msg string, kv ...any)             {}
func (l *testLogger) Error(err error, msg string, kv ...any) {}

type backendSettings struct {
	Enabled bool          `env:"ENABLED" default:"true"`
	Host    string        `env:"HOST" default:"localhost"`
	Port    int           `env:"PORT" default:"6379" validate:"min=1,max=65535"`
	Timeout time.Duration `env:"TIMEOUT" default:"5s"`
}

type appSettings struct {
	Omit  []string        `env:"OMIT" default:"AccessToken"`
	Redis backendSettings `envPrefix:"REDIS_"`
}

func TestNewManagerValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewManager(ctx, Options{Sources: []Source{NewMapSource(nil)}}); err == nil {
		t.Error("NewManager() without logger should fail")
	}
	if _, err := NewManager(ctx, Options{Logger: &testLogger{}}); err == nil {
		t.Error("NewManager() without sources should fail")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eggdata.yaml")
	doc := "redis:\n  host: cache.internal\n  port: 6380\nomit:\n  - AccessToken\n  - Session\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CFGTEST_REDIS_HOST", "override")

	mgr, err := NewManager(context.Background(), Options{
		Logger: &testLogger{},
		Sources: []Source{
			NewFileSource(path, FileOptions{}),
			NewEnvSource(EnvOptions{Prefix: "CFGTEST_"}),
		},
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var cfg appSettings
	if err := mgr.Bind(&cfg); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if cfg.Redis.Host != "override" {
		t.Errorf("Redis.Host = %q, want override", cfg.Redis.Host)
	}
	if cfg.Redis.Port != 6380 {
		t.Errorf("Redis.Port = %d, want 6380", cfg.Redis.Port)
	}
	if cfg.Redis.Timeout != 5*time.Second {
		t.Errorf("Redis.Timeout = %v, want 5s", cfg.Redis.Timeout)
	}
	if !cfg.Redis.Enabled {
		t.Error("Redis.Enabled should default to true")
	}
	if strings.Join(cfg.Omit, ",") != "AccessToken,Session" {
		t.Errorf("Omit = %v, want [AccessToken Session]", cfg.Omit)
	}
}

func TestBindValidation(t *testing.T) {
	mgr, err := NewManager(context.Background(), Options{
		Logger:  &testLogger{},
		Sources: []Source{NewMapSource(map[string]string{"REDIS_PORT": "70000"})},
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var cfg appSettings
	if err := mgr.Bind(&cfg); err == nil {
		t.Error("Bind() with out-of-range port should fail validation")
	}
	if err := mgr.Bind(&cfg, WithoutValidation()); err != nil {
		t.Errorf("Bind(WithoutValidation) error = %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := NewManager(context.Background(), Options{
		Logger:  &testLogger{},
		Sources: []Source{NewFileSource(path, FileOptions{Optional: true})},
	}); err != nil {
		t.Errorf("optional missing file: error = %v", err)
	}

	if _, err := NewManager(context.Background(), Options{
		Logger:  &testLogger{},
		Sources: []Source{NewFileSource(path, FileOptions{})},
	}); err == nil {
		t.Error("required missing file should fail")
	}
}

func TestValidateStruct(t *testing.T) {
	type target struct {
		Name string `validate:"required"`
	}

	if err := ValidateStruct(NewValidator(), &target{}); err == nil {
		t.Error("ValidateStruct() with empty required field should fail")
	}
	if err := ValidateStruct(nil, &target{Name: "x"}); err != nil {
		t.Errorf("ValidateStruct() error = %v", err)
	}
}

func TestValidateStructNamesConfigKeys(t *testing.T) {
	type section struct {
		Driver string `env:"DRIVER" validate:"oneof=mysql sqlite"`
	}
	type settings struct {
		Level string  `env:"LOG_LEVEL" validate:"required"`
		GORM  section `envPrefix:"GORM_"`
	}

	err := ValidateStruct(NewValidator(), &settings{GORM: section{Driver: "oracle"}})
	if err == nil {
		t.Fatal("ValidateStruct() error = nil")
	}
	for _, want := range []string{"LOG_LEVEL: required", "GORM.DRIVER: oneof=mysql sqlite"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}

	err = ValidateStruct(NewValidator(WithStructFieldNames()), &settings{Level: "x", GORM: section{Driver: "oracle"}})
	if err == nil || !strings.Contains(err.Error(), "GORM.Driver") {
		t.Errorf("struct field names: error = %v", err)
	}
}
