package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
)

// validate is the shared struct validator. Field names are reported by
// their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration (with defaults applied) for errors.
// Failures are returned as errors.KindValidation wrapping a *ValidationError.
func Validate(cfg *Config) error {
	if err := validateStruct(cfg); err != nil {
		return errors.Validation(err)
	}
	if err := validateObjectName(cfg); err != nil {
		return errors.Validation(err)
	}
	if err := validateServers(cfg); err != nil {
		return errors.Validation(err)
	}
	return nil
}

func validateStruct(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "config", Message: err.Error()}
	}
	e := fieldErrs[0]
	return &ValidationError{
		Field:   fieldPath(e),
		Message: formatValidationMessage(e),
	}
}

// fieldPath renders servers[0].port from the validator namespace Config.servers[0].port.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// formatValidationMessage creates human-readable error messages.
func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s item(s)", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}

func validateObjectName(cfg *Config) error {
	if _, err := mbean.ParseObjectName(cfg.ObjectName); err != nil {
		return &ValidationError{Field: "object_name", Message: err.Error()}
	}
	return nil
}

func validateServers(cfg *Config) error {
	seen := make(map[string]int, len(cfg.Servers))
	for i, s := range cfg.Servers {
		if prev, dup := seen[s.Name]; dup {
			return &ValidationError{
				Field:   fmt.Sprintf("servers[%d].name", i),
				Message: fmt.Sprintf("duplicates servers[%d].name %q", prev, s.Name),
			}
		}
		seen[s.Name] = i

		if s.Credentials == nil {
			continue
		}
		if s.Credentials.Password != "" && s.Credentials.PasswordEnv != "" {
			return &ValidationError{
				Field:   fmt.Sprintf("servers[%d].credentials", i),
				Message: "set either password or password_env, not both",
			}
		}
		if _, err := s.Credentials.ResolvePassword(); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("servers[%d].credentials.password_env", i),
				Message: err.Error(),
			}
		}
	}
	return nil
}
