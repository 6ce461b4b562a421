package configx

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidatorOption configures the validator.
type ValidatorOption func(*validator.Validate)

// WithStructFieldNames reports failures by Go field name instead of config key.
func WithStructFieldNames() ValidatorOption {
	return func(v *validator.Validate) {
		v.RegisterTagNameFunc(func(reflect.StructField) string { return "" })
	}
}

// NewValidator creates a validator that names fields by their config key:
// the `env` tag, or the `envPrefix` of a nested section without its trailing
// underscore.
func NewValidator(opts ...ValidatorOption) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(configKey)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func configKey(f reflect.StructField) string {
	if env := f.Tag.Get("env"); env != "" && env != "-" {
		return env
	}
	if prefix := f.Tag.Get("envPrefix"); prefix != "" {
		return strings.TrimSuffix(prefix, "_")
	}
	return ""
}

// ValidateStruct validates target and lists every failing field as
// "KEY: rule" with the root struct name dropped.
func ValidateStruct(v *validator.Validate, target any) error {
	if v == nil {
		v = NewValidator()
	}

	err := v.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", key, rule))
	}
	return fmt.Errorf("validation failed: %s: %w", strings.Join(msgs, "; "), err)
}
