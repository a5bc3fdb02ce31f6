// Package config loads service settings from the environment and the OAuth
// provider catalog from YAML.
package config
