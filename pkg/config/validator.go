package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Downloader.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "downloader.dir",
			Message: "output directory is required",
		})
	}

	if c.Downloader.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "downloader.timeout",
			Message: "timeout must not be negative",
		})
	}

	if c.Downloader.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "downloader.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	if c.Downloader.RevisionPattern != "" {
		re, err := regexp.Compile(c.Downloader.RevisionPattern)
		switch {
		case err != nil:
			errors = append(errors, ValidationError{
				Field:   "downloader.revision_pattern",
				Message: fmt.Sprintf("invalid pattern: %v", err),
			})
		case re.NumSubexp() < 1:
			errors = append(errors, ValidationError{
				Field:   "downloader.revision_pattern",
				Message: "pattern must capture the page id in its first group",
			})
		}
	}

	if c.Office.ExportPDF && c.Office.SofficePath == "" {
		errors = append(errors, ValidationError{
			Field:   "office.soffice_path",
			Message: "soffice_path is required to export PDF",
		})
	}

	if _, err := c.LogLevel(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: err.Error(),
		})
	}

	return errors
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return level, nil
}

// CompiledRevisionPattern returns the configured pattern, or nil when the
// built-in one applies.
func (c *Config) CompiledRevisionPattern() (*regexp.Regexp, error) {
	if c.Downloader.RevisionPattern == "" {
		return nil, nil
	}
	return regexp.Compile(c.Downloader.RevisionPattern)
}
