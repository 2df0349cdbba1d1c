// Package cli provides the command-line interface for tp2-backend.
//
// Commands:
//   - serve: run the users API with its metrics endpoint (foreground)
//   - config: print the effective configuration and where each value came from
//   - metrics: scrape a running instance and print its metric families
//   - version: show build information
//
// Configuration is resolved from flags, TP2_* environment variables, a .env
// file, a YAML config file and built-in defaults, in that order of precedence.
package cli
