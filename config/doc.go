// Package config loads service configuration from YAML files, .env files,
// and environment variables using viper. Environment variables win over file
// values so deployments can override anything without editing files.
package config
