package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks field tags and the rules that span fields.
func Validate(cfg *Config) error {
	v := validator.New()
	v.RegisterStructValidation(databaseRules, DatabaseConfig{})
	v.RegisterStructValidation(routingRules, RoutingConfig{})

	if err := v.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func databaseRules(sl validator.StructLevel) {
	db := sl.Current().Interface().(DatabaseConfig)
	if db.Driver == "postgres" && strings.TrimSpace(db.URL) == "" {
		sl.ReportError(db.URL, "URL", "url", "required_for_postgres", "")
	}
	if db.Driver == "sqlite" && strings.TrimSpace(db.Path) == "" {
		sl.ReportError(db.Path, "Path", "path", "required_for_sqlite", "")
	}
}

func routingRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(RoutingConfig)
	if r.Provider == "mapbox" && strings.TrimSpace(r.MapboxToken) == "" {
		sl.ReportError(r.MapboxToken, "MapboxToken", "mapbox_token", "required_for_mapbox", "")
	}
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}
