package config

import "time"

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Config holds runtime settings for the contacts CLI.
//
// Mode selects the document store: "local" runs an embedded SQLite store and
// identity provider in-process, "remote" talks to ServerEndpointAddr over gRPC.
type Config struct {
	Mode                        string
	DatabaseDSN                 string
	ServerEndpointAddr          string
	PrefixLimit                 int
	LogLevel                    string
	FederationSecret            string
	TokenSecret                 string
	AccessTokenValidityDuration time.Duration
	RequestTimeout              time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Mode = ModeLocal
	c.DatabaseDSN = "contacts.db"
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.PrefixLimit = 10
	c.LogLevel = "warn"
	c.FederationSecret = "federationSecret"
	c.TokenSecret = "localSecret"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.RequestTimeout = 12 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
