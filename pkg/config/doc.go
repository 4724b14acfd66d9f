// Package config provides configuration management for ferry.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("ferry.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("ferry.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention FERRY_SECTION_FIELD.
// For example:
//
//   - FERRY_STAGE_ENVIRONMENT overrides stage.environment
//   - FERRY_STAGE_REGION_IN overrides stage.region_in
//   - FERRY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	stage:
//	  name: "dxe"
//	  environment: "critical_section"
//	  region_in: "/var/lib/ferry/handoff.region"
//	  region_out: "/var/lib/ferry/handoff.region"
//
//	seed:
//	  path: "./seed.yaml"
//	  watch: true
//
//	journal:
//	  dsn: ":memory:"
//	  retention: "24h"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    listen_address: "127.0.0.1:9464"
package config
