package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "remote mode", args: []string{"cmd", "-mode", "remote", "-a", "127.0.0.1:9090", "-t", "5"},
			expected: &Config{Mode: ModeRemote, ServerEndpointAddr: "127.0.0.1:9090", RequestTimeout: 5 * time.Second}},
		{name: "local mode", args: []string{"cmd", "-d", "my.db", "-n", "3", "-v", "debug", "-f", "fed", "-s", "sec"},
			expected: &Config{DatabaseDSN: "my.db", PrefixLimit: 3, LogLevel: "debug", FederationSecret: "fed", TokenSecret: "sec"}},
		{name: "unknown flags ignored", args: []string{"cmd", "-x", "1", "-a=host:1"},
			expected: &Config{ServerEndpointAddr: "host:1"}},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
