package tui

import "log/slog"

// DefaultMaxAttempts bounds how often a single field is prompted.
const DefaultMaxAttempts = 3

// Theme captures optional message prefixes.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Runner.
type Option func(*config)

type config struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
	logger      *slog.Logger
}

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *config) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *config) {
		c.theme = theme
	}
}

// WithMaxAttempts bounds how often an invalid field is prompted again.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger used for prompt diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
