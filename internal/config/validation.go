package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Scorer kinds
const (
	ScorerEmbedded = "embedded"
	ScorerHTTP     = "http"
	ScorerGRPC     = "grpc"
)

// Output formats
const (
	OutputConsole = "console"
	OutputCSV     = "csv"
	OutputJSON    = "json"
	OutputParquet = "parquet"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// customRules maps validation tags to their functions
var customRules = map[string]validator.Func{
	"environment":  validateEnvironment,
	"loglevel":     validateLogLevel,
	"scorerkind":   validateScorerKind,
	"outputformat": validateOutputFormat,
	"cronspec":     validateCronSpec,
}

// NewValidator creates a new validator with custom validation functions.
// It panics if a rule cannot be registered.
func NewValidator() *CustomValidator {
	v := validator.New()

	for tag, fn := range customRules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("config: register validation %q: %v", tag, err))
		}
	}

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateScorerKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ScorerEmbedded, ScorerHTTP, ScorerGRPC:
		return true
	default:
		return false
	}
}

func validateOutputFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case OutputConsole, OutputCSV, OutputJSON, OutputParquet:
		return true
	default:
		return false
	}
}

// validateCronSpec accepts five-field cron expressions and descriptors such as "@every 5m"
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Scorer.RetryWaitMinMs > cfg.Scorer.RetryWaitMaxMs {
		return fmt.Errorf("scorer retry_wait_min_ms cannot exceed retry_wait_max_ms")
	}

	if cfg.Output.Format != OutputConsole && cfg.Output.Path == "" {
		return fmt.Errorf("output path is required for %s output", cfg.Output.Format)
	}

	if cfg.Database.Enabled {
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.Scorer.Kind == ScorerHTTP && cfg.IsProduction() && strings.HasPrefix(cfg.Scorer.URL, "http://") {
		return fmt.Errorf("production environment requires an https scorer url")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "scorerkind":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: embedded, http, grpc\n", field)
		case "outputformat":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: console, csv, json, parquet\n", field)
		case "cronspec":
			errMsg += fmt.Sprintf("- Field '%s' is not a valid cron expression: '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
