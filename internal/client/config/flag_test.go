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
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-n", "http://node:8545", "-w", "http://wallet:1248", "-m", "0xabc", "-i", "10", "-d", "/tmp/m.db", "-l", "debug"},
			expected: &Config{
				NodeURL:             "http://node:8545",
				WalletURL:           "http://wallet:1248",
				ContractAddress:     "0xabc",
				AccountPollInterval: 10 * time.Second,
				DatabasePath:        "/tmp/m.db",
				LogLevel:            "debug",
			},
		},
		{
			name: "unrelated flags are ignored",
			args: []string{"cmd", "-c", "conf.yaml", "-i", "3", "-x"},
			expected: &Config{
				AccountPollInterval: 3 * time.Second,
			},
		},
		{name: "incorrect poll interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
		{name: "zero poll interval", args: []string{"cmd", "-i", "0"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
