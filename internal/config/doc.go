// Package config loads and validates the web2md YAML configuration file.
//
// Precedence is applied by the CLI: flags, then WEB2MD_* environment
// variables, then this file, then DefaultConfig.
package config
