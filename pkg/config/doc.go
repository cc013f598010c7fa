// Package config provides configuration management for the Phare agent SDK.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("phare.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("phare.yaml")
//
//  3. From defaults and environment variables alone, for applications that
//     embed Phare as a library:
//     cfg, err := config.LoadFromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PHARE_SECTION_FIELD.
// For example:
//
//   - PHARE_EXPORTER_ENDPOINT overrides exporter.endpoint
//   - PHARE_CLIENT_AUTO_START_SESSION overrides client.auto_start_session
//   - PHARE_LOG_LEVEL overrides logging.level
//
// Environment variables always take precedence over file-based configuration.
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
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("phare.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Exporter.Endpoint)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	service:
//	  name: "citizen-chat"
//	  environment: "prod"
//
//	exporter:
//	  endpoint: "https://collector.example.gov/v1/traces"
//
//	usage:
//	  enabled: true
//	  backend: "sqlite"
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads while protecting against
// concurrent writes during reload operations.
package config
