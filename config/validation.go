package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirements lists the credentials each environment refuses to start without.
var requirements = map[Environment][]string{
	Development: {},
	Test:        {},
	CI:          {},
	Production:  {"DeepSeekAPIKey", "HFAPIToken"},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateConfig checks field constraints and the requirements for the configured environment
func ValidateConfig(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, ValidationError{
				Field:   fe.Field(),
				Message: describe(fe),
			}.Error())
		}
	}

	for _, field := range requirements[cfg.Environment] {
		if strings.TrimSpace(secretField(cfg, field)) == "" {
			problems = append(problems, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("required in %s environment", cfg.Environment),
			}.Error())
		}
	}

	if cfg.SessionBackend == "redis" && cfg.RedisURL == "" && cfg.RedisHost == "" {
		problems = append(problems, ValidationError{Field: "RedisHost", Message: "required when SESSION_BACKEND=redis"}.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}

func secretField(cfg *Config, field string) string {
	switch field {
	case "DeepSeekAPIKey":
		return cfg.DeepSeekAPIKey
	case "HFAPIToken":
		return cfg.HFAPIToken
	default:
		return ""
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "gt", "gte", "lte":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
