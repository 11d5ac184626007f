// Package config handles loading and validating medrecord-core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with MEDRECORD_* environment variables
//   - Validation of required fields and security floors
//   - Default value handling
//
// Security Considerations:
//   - Credentials for MQTT and InfluxDB should be set via environment variables
//   - The session cookie is Secure by default; only disable it for local HTTP development
//   - PBKDF2 iteration counts below 100 000 are rejected
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.SessionLifetime())
package config
