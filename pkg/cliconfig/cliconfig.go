// Package cliconfig resolves client-side CLI settings from flags and
// environment variables. Precedence: flag > env > default.
package cliconfig

import (
	"fmt"
	"os"

	"github.com/getmockd/mockdeck/pkg/config"
)

// Environment variable names.
const (
	EnvConsoleURL = "MOCKDECK_CONSOLE_URL"
	EnvConfig     = "MOCKDECK_CONFIG"
)

// DefaultConsoleURL returns the console URL for a default local install.
func DefaultConsoleURL() string {
	return fmt.Sprintf("http://localhost:%d", config.DefaultConsolePort)
}

// ResolveConsoleURL picks the console URL from the flag value, the
// environment, or the default, in that order.
func ResolveConsoleURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvConsoleURL); v != "" {
		return v
	}
	return DefaultConsoleURL()
}

// ResolveConfigPath picks the config file path from the flag value or the
// environment. Empty means "use the default location".
func ResolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfig)
}
