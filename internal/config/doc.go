// Package config loads and validates pipeline configuration from YAML.
//
// Configuration flows through three stages: Load reads the file and
// expands ${VAR} environment references, applyDefaults fills optional
// fields, and Validate rejects incomplete or inconsistent values.
// Callers normally use LoadAndValidate, which runs all three.
package config
