// Package config handles runtime configuration for passvault, including
// defaults, JSON overlay, environment variables for SMTP credentials, and
// command-line flags.
package config

// Config holds runtime settings for the passvault shell.
//
// Fields:
//   - DataDir: directory for the record database, preferences, and the QR artifact.
//   - ClientName: the client identity that namespaces secrets in the OS keyring.
//   - Issuer: issuer name shown in authenticator apps.
//   - TokenTTLSeconds: security-token countdown length.
//   - SMTPHost / SMTPPort: token mail relay.
//   - SMTPUsername / SMTPPassword / SMTPFrom: relay credentials; supplied via
//     environment, never stored in the JSON file.
type Config struct {
	DataDir         string
	ClientName      string
	Issuer          string
	TokenTTLSeconds int
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "pwm_data"
	c.ClientName = "passvault"
	c.Issuer = "passvault"
	c.TokenTTLSeconds = 60
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 587
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), environment variables, and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
