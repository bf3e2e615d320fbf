package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Moonsong-Labs/crucible/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "logging.max_size_mb")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// branchPrefixRegex validates branch prefix characters
// Branch names should start with a letter and can contain alphanumeric, hyphen, underscore
var branchPrefixRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

const (
	maxBranchPrefixLen = 50
	maxLogSizeMB       = 1000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDetect()...)
	errors = append(errors, c.validateHistory()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateDetect validates the DetectConfig
func (c *Config) validateDetect() []ValidationError {
	var errors []ValidationError

	ns := c.Detect.Namespace
	switch {
	case strings.TrimSpace(ns) == "":
		errors = append(errors, ValidationError{
			Field:   "detect.namespace",
			Value:   ns,
			Message: "must not be empty",
		})
	case filepath.IsAbs(ns):
		errors = append(errors, ValidationError{
			Field:   "detect.namespace",
			Value:   ns,
			Message: "must be relative to the repository",
		})
	}

	prefix := c.Detect.BranchPrefix
	if !branchPrefixRegex.MatchString(prefix) {
		errors = append(errors, ValidationError{
			Field:   "detect.branch_prefix",
			Value:   prefix,
			Message: "must start with a letter and contain only letters, digits, hyphens or underscores",
		})
	}
	if len(prefix) > maxBranchPrefixLen {
		errors = append(errors, ValidationError{
			Field:   "detect.branch_prefix",
			Value:   prefix,
			Message: fmt.Sprintf("exceeds maximum length of %d", maxBranchPrefixLen),
		})
	}

	return errors
}

// validateHistory validates the HistoryConfig
func (c *Config) validateHistory() []ValidationError {
	if strings.TrimSpace(c.History.Remote) != "" {
		return nil
	}
	return []ValidationError{{
		Field:   "history.remote",
		Value:   c.History.Remote,
		Message: "must not be empty",
	}}
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !logging.IsValidLevel(c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
