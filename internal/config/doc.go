// Package config defines the application configuration structure and loads
// it from environment variables (INKPRESS_ prefix) and an optional config
// file, validating the result before the application starts.
package config
