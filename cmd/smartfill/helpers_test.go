package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("SMARTFILL_TEST_DIR", "/var/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain path untouched", in: "/tmp/smartfill.db", want: "/tmp/smartfill.db"},
		{name: "tilde prefix", in: "~/state/smartfill.db", want: filepath.Join(home, "state", "smartfill.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "env var", in: "$SMARTFILL_TEST_DIR/smartfill.db", want: "/var/data/smartfill.db"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPath(tt.in))
		})
	}
}
