// Package internal provides internal implementation details for configx.
//
// Overview:
//   - Responsibility: Implement configuration sources (Env, File)
//   - Key Types: EnvSource, FileSource
//   - Concurrency Model: All sources are safe for concurrent use
//   - Error Semantics: Sources return errors for read and parse failures
//   - Performance Notes: Files are read once per Load
//
// Usage:
//
//	envSource := configx.NewEnvSource(configx.EnvOptions{Prefix: "EGGDATA_"})
//	fileSource := configx.NewFileSource("eggdata.yaml", configx.FileOptions{})
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvOptions configures environment variable source behavior.
type EnvOptions struct {
	Prefix    string // Prefix for environment variables (e.g., "EGGDATA_"), stripped from keys
	Lowercase bool   // Convert keys to lowercase
	Uppercase bool   // Convert keys to uppercase
}

// EnvSource loads configuration from environment variables.
type EnvSource struct {
	prefix    string
	lowercase bool
	uppercase bool
	environ   func() []string
}

// NewEnvSource creates a new environment variable source.
func NewEnvSource(opts EnvOptions) *EnvSource {
	return &EnvSource{
		prefix:    opts.Prefix,
		lowercase: opts.Lowercase,
		uppercase: opts.Uppercase,
		environ:   os.Environ,
	}
}

// Load reads configuration from environment variables.
func (s *EnvSource) Load(ctx context.Context) (map[string]string, error) {
	config := make(map[string]string)

	for _, env := range s.environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if s.prefix != "" {
			if !strings.HasPrefix(key, s.prefix) {
				continue
			}
			key = strings.TrimPrefix(key, s.prefix)
		}

		if s.lowercase {
			key = strings.ToLower(key)
		} else if s.uppercase {
			key = strings.ToUpper(key)
		}

		config[key] = value
	}

	return config, nil
}

// FileOptions configures file source behavior.
type FileOptions struct {
	Format   string // File format: "json" or "yaml" (default: detect from extension)
	Optional bool   // Missing file yields an empty snapshot instead of an error
}

// FileSource loads configuration from a YAML or JSON file.
// Nested keys are flattened into UPPER_SNAKE keys, so that
//
//	redis:
//	  host: cache
//
// yields REDIS_HOST=cache, the same key an env source produces.
type FileSource struct {
	path     string
	format   string
	optional bool
}

// NewFileSource creates a new file source.
func NewFileSource(path string, opts FileOptions) *FileSource {
	format := opts.Format
	if format == "" {
		format = detectFileFormat(path)
	}

	return &FileSource{
		path:     path,
		format:   format,
		optional: opts.Optional,
	}
}

// Load reads configuration from the file.
func (s *FileSource) Load(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) && s.optional {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read file %s: %w", s.path, err)
	}

	config, err := ParseConfig(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", s.path, err)
	}
	return config, nil
}

func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}

// ParseConfig parses a YAML or JSON document into a flat snapshot.
func ParseConfig(data []byte, format string) (map[string]string, error) {
	var doc map[string]any

	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	config := make(map[string]string)
	flatten("", doc, config)
	return config, nil
}

func flatten(prefix string, value any, out map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(joinKey(prefix, k), child, out)
		}
	case map[any]any:
		for k, child := range v {
			flatten(joinKey(prefix, fmt.Sprint(k)), child, out)
		}
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(items, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

func joinKey(prefix, key string) string {
	key = strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

// MapSource serves a fixed snapshot.
type MapSource map[string]string

// Load returns a copy of the map.
func (s MapSource) Load(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// Keys returns the sorted keys of a snapshot.
func Keys(snapshot map[string]string) []string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
