package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

// hasFieldError reports whether errs contains an error for field.
func hasFieldError(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate_Namespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		hasError  bool
	}{
		{"default", ".claude/upstream", false},
		{"single segment", "reports", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"absolute", "/tmp/reports", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Detect.Namespace = tt.namespace

			if got := hasFieldError(cfg.Validate(), "detect.namespace"); got != tt.hasError {
				t.Errorf("Validate() for namespace=%q: hasError=%v, want %v", tt.namespace, got, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_BranchPrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		hasError bool
	}{
		{"default", "conflict-detection", false},
		{"underscore", "pre_flight", false},
		{"digits", "run2", false},
		{"empty", "", true},
		{"leading digit", "2run", true},
		{"leading hyphen", "-run", true},
		{"slash", "team/run", true},
		{"space", "my run", true},
		{"max length", strings.Repeat("a", 50), false},
		{"too long", strings.Repeat("a", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Detect.BranchPrefix = tt.prefix

			if got := hasFieldError(cfg.Validate(), "detect.branch_prefix"); got != tt.hasError {
				t.Errorf("Validate() for prefix=%q: hasError=%v, want %v", tt.prefix, got, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Remote(t *testing.T) {
	cfg := Default()
	cfg.History.Remote = ""
	if !hasFieldError(cfg.Validate(), "history.remote") {
		t.Error("expected error for empty remote")
	}

	cfg.History.Remote = "origin"
	if hasFieldError(cfg.Validate(), "history.remote") {
		t.Error("origin should be valid")
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		errorField string
	}{
		{"debug level", func(c *Config) { c.Logging.Level = "debug" }, ""},
		{"upper case level", func(c *Config) { c.Logging.Level = "WARN" }, ""},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, ""},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"zero size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"negative size", func(c *Config) { c.Logging.MaxSizeMB = -5 }, "logging.max_size_mb"},
		{"max size", func(c *Config) { c.Logging.MaxSizeMB = 1000 }, ""},
		{"excessive size", func(c *Config) { c.Logging.MaxSizeMB = 1001 }, "logging.max_size_mb"},
		{"zero backups", func(c *Config) { c.Logging.MaxBackups = 0 }, ""},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			errs := cfg.Validate()

			if tt.errorField == "" {
				if len(errs) != 0 {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if !hasFieldError(errs, tt.errorField) {
				t.Errorf("expected error for %s, got %v", tt.errorField, errs)
			}
		})
	}
}

func TestConfig_Validate_CollectsAll(t *testing.T) {
	cfg := &Config{}
	errs := cfg.Validate()

	for _, field := range []string{"detect.namespace", "detect.branch_prefix", "history.remote", "logging.max_size_mb"} {
		if !hasFieldError(errs, field) {
			t.Errorf("missing error for %s in %v", field, errs)
		}
	}
}
