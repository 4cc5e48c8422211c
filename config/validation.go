package config

import (
	"errors"
	"fmt"
	"strings"

	goValidator "github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the driver specific requirements.
func Validate(cfg *Config) error {
	v := goValidator.New()
	if err := v.Struct(cfg); err != nil {
		var validationErrors goValidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if cfg.Backend.Driver == DriverPostgres {
		var missing []string
		if cfg.DB.Host == "" {
			missing = append(missing, "database.host")
		}
		if cfg.DB.User == "" {
			missing = append(missing, "database.user")
		}
		if cfg.DB.DBName == "" {
			missing = append(missing, "database.name")
		}
		if len(missing) > 0 {
			return fmt.Errorf("postgres backend requires %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

func formatValidationErrors(errs goValidator.ValidationErrors) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value: %v)", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
