// Package config defines the gatecam configuration.
//
//   - spec.go: Config struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: secret masking for logs
//   - broker.go: conversion to transport options
//   - keys.go: koanf key enumeration for environment overrides
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and GATECAM_ environment variables.
package config
