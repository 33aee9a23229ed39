package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophcontacts/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Flags not listed in the package doc are ignored.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-mode", "-d", "-a", "-n", "-v", "-f", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "store mode (local|remote)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database file")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.IntVar(&cfg.PrefixLimit, "n", cfg.PrefixLimit, "prefix query limit per key")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.FederationSecret, "f", cfg.FederationSecret, "federation secret")
	fs.StringVar(&cfg.TokenSecret, "s", cfg.TokenSecret, "local token secret")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
