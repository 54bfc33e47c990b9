package config

import (
	"encoding/json"
	"os"

	"github.com/mkalvans/passvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Only
// non-sensitive settings can come from the file; SMTP credentials are
// environment-only.
type JsonConfig struct {
	DataDir         string `json:"data_dir"`
	ClientName      string `json:"client_name"`
	Issuer          string `json:"issuer"`
	TokenTTLSeconds int    `json:"token_ttl_seconds"`
	SMTPHost        string `json:"smtp_host"`
	SMTPPort        int    `json:"smtp_port"`
}

// parseJson overlays cfg with values loaded from a JSON file. The file path
// comes from the -c/-config flags; when absent, no JSON is loaded. Empty or
// zero fields in the file leave the current value untouched.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.ClientName != "" {
		cfg.ClientName = jc.ClientName
	}
	if jc.Issuer != "" {
		cfg.Issuer = jc.Issuer
	}
	if jc.TokenTTLSeconds > 0 {
		cfg.TokenTTLSeconds = jc.TokenTTLSeconds
	}
	if jc.SMTPHost != "" {
		cfg.SMTPHost = jc.SMTPHost
	}
	if jc.SMTPPort > 0 {
		cfg.SMTPPort = jc.SMTPPort
	}
}
