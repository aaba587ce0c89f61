// Package config handles loading and validating sqlitelib configuration.
//
// This package manages:
//   - Loading configuration from YAML, or TOML for files ending in .toml
//   - Overriding with SQLITELIB_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - MQTT passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/sqlitelib.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Path)
package config
