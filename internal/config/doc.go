// Package config handles configuration loading, parsing, and validation
// from a YAML file, a .env file and AMORA_ environment variables. It provides
// type-safe access to the backend address, probe policy, offline storage
// driver and logging settings.
package config
