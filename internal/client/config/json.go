package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophcontacts/internal/flagx"
	"github.com/dmitrijs2005/gophcontacts/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Mode                        string         `json:"mode"`
	DatabaseDSN                 string         `json:"database_dsn"`
	ServerEndpointAddr          string         `json:"server_endpoint_addr"`
	PrefixLimit                 int            `json:"prefix_limit"`
	LogLevel                    string         `json:"log_level"`
	FederationSecret            string         `json:"federation_secret"`
	TokenSecret                 string         `json:"token_secret"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	RequestTimeout              timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values from the file named by -c/-config.
// Absent keys keep their current value. Panics on read or unmarshal errors.
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

	setString(&cfg.Mode, jc.Mode)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	if jc.PrefixLimit > 0 {
		cfg.PrefixLimit = jc.PrefixLimit
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.FederationSecret, jc.FederationSecret)
	setString(&cfg.TokenSecret, jc.TokenSecret)
	if jc.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
