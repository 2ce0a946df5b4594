package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.PortalURL = "https://portal.example.com"
	cfg.Stats.DefaultDuration = "1d"
	require.NoError(t, Write(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", loaded.PortalURL)
	assert.Equal(t, "1d", loaded.Stats.DefaultDuration)
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		key      string
		value    string
		contains []string
	}{
		{
			name:     "replaces top-level value and keeps comments",
			initial:  "# portal settings\nportal_url: https://old.example.com # prod\nsession_cookie: old\n",
			key:      "session_cookie",
			value:    "new-cookie",
			contains: []string{"# portal settings", "https://old.example.com", "session_cookie: new-cookie"},
		},
		{
			name:     "creates nested mapping",
			initial:  "portal_url: https://portal.example.com\n",
			key:      "stats.default_duration",
			value:    "6h",
			contains: []string{"stats:", "  default_duration: 6h"},
		},
		{
			name:     "updates nested value",
			initial:  "stats:\n  default_duration: 1h\n",
			key:      "stats.default_duration",
			value:    "2w",
			contains: []string{"default_duration: 2w"},
		},
		{
			name:     "empty file",
			initial:  "",
			key:      "portal_url",
			value:    "https://x.example.com",
			contains: []string{"portal_url: https://x.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.initial), 0o600))

			require.NoError(t, SetValue(path, tt.key, tt.value))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, string(data), s)
			}
		})
	}
}

func TestSetValue_NotMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stats: flat\n"), 0o600))

	err := SetValue(path, "stats.default_duration", "1h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a mapping")
}

func TestSetValue_MissingFile(t *testing.T) {
	err := SetValue(filepath.Join(t.TempDir(), "nope.yaml"), "portal_url", "x")
	assert.Error(t, err)
}
