package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophcontacts/internal/flagx"
	"github.com/dmitrijs2005/gophcontacts/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept both "1m" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	MetricsAddr                 *string        `json:"metrics_addr"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	RedisAddr                   *string        `json:"redis_addr"`
	SecretKey                   string         `json:"secret_key"`
	FederationSecret            string         `json:"federation_secret"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	PrefixLimit                 int            `json:"prefix_limit"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config. Absent keys
// keep their current value; metrics_addr and redis_addr may be set to "" to
// disable the feature. An unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.RedisAddr != nil {
		config.RedisAddr = *c.RedisAddr
	}
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.FederationSecret, c.FederationSecret)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.PrefixLimit > 0 {
		config.PrefixLimit = c.PrefixLimit
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
