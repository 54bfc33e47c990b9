package config

import "os"

// parseEnv overlays SMTP credentials from the environment. These never live
// in the JSON config file.
func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PASSVAULT_SMTP_USERNAME"); ok {
		cfg.SMTPUsername = v
	}
	if v, ok := os.LookupEnv("PASSVAULT_SMTP_PASSWORD"); ok {
		cfg.SMTPPassword = v
	}
	if v, ok := os.LookupEnv("PASSVAULT_SMTP_FROM"); ok {
		cfg.SMTPFrom = v
	}
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUsername
	}
}
