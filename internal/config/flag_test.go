package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectPanic bool
		wantDataDir string
		wantTTL     int
	}{
		{name: "overrides", args: []string{"cmd", "-d", "/tmp/vault", "-t", "30"},
			wantDataDir: "/tmp/vault", wantTTL: 30},
		{name: "defaults kept", args: []string{"cmd"},
			wantDataDir: "pwm_data", wantTTL: 60},
		{name: "bad ttl", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })
			os.Args = tt.args

			var c Config
			c.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(&c) })
				return
			}

			require.NotPanics(t, func() { parseFlags(&c) })
			assert.Equal(t, tt.wantDataDir, c.DataDir)
			assert.Equal(t, tt.wantTTL, c.TokenTTLSeconds)
		})
	}
}
