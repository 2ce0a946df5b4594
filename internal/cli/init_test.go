package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, portalURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portalctl.yaml")
	cfg := config.DefaultConfig()
	cfg.PortalURL = portalURL
	require.NoError(t, config.Write(path, cfg))
	return path
}

func TestInitCommand_NonInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "portalctl.yaml")

	var buf bytes.Buffer
	require.NoError(t, initCommand(&buf, InitOptions{Path: path, PortalURL: " https://portal.example.com/ "}))
	assert.Contains(t, buf.String(), "Created "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", cfg.PortalURL)
	assert.NoError(t, config.Validate(cfg))
}

func TestCheckSession(t *testing.T) {
	f := newFakePortal(t)
	cfg := config.DefaultConfig()
	cfg.PortalURL = f.srv.URL
	cfg.SessionCookie = "s"

	var buf bytes.Buffer
	checkSession(&buf, cfg)
	assert.Contains(t, buf.String(), "Session belongs to alice")
	assert.Equal(t, 1, f.count("/api/info"))
}

func TestInitCommand_Existing(t *testing.T) {
	path := writeTestConfig(t, "https://old.example.com")

	err := initCommand(&bytes.Buffer{}, InitOptions{Path: path, PortalURL: "https://new.example.com"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	require.NoError(t, initCommand(&bytes.Buffer{}, InitOptions{Path: path, PortalURL: "https://new.example.com", Overwrite: true}))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", cfg.PortalURL)
}

func TestInitCommand_InvalidURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portalctl.yaml")

	err := initCommand(&bytes.Buffer{}, InitOptions{Path: path, PortalURL: "not a url"})
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestConfigSetCommand(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "valid duration", key: "stats.default_duration", value: "6h"},
		{name: "valid format", key: "output.format", value: "yaml"},
		{name: "unknown duration", key: "stats.default_duration", value: "3h", wantErr: true},
		{name: "bad portal url", key: "portal_url", value: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestConfig(t, "https://portal.example.com")
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			var buf bytes.Buffer
			err = configSetCommand(&buf, path, tt.key, tt.value)
			after, rerr := os.ReadFile(path)
			require.NoError(t, rerr)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, string(before), string(after), "file must be restored")
				return
			}
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.key+" = "+tt.value)
			assert.NotEqual(t, string(before), string(after))
		})
	}
}

func TestConfigSetCommand_NoFile(t *testing.T) {
	err := configSetCommand(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing.yaml"), "output.format", "json")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestConfigShowCommand(t *testing.T) {
	oldFormat := formatFlag
	defer func() { formatFlag = oldFormat }()

	path := writeTestConfig(t, "https://portal.example.com")
	require.NoError(t, config.SetValue(path, "session_cookie", "very-secret"))

	formatFlag = formatJSON
	var buf bytes.Buffer
	require.NoError(t, configShowCommand(&buf, path))
	assert.NotContains(t, buf.String(), "very-secret")

	var got map[string]string
	decodeEnvelope(t, buf.Bytes(), &got)
	assert.Equal(t, "https://portal.example.com", got["portal_url"])
	assert.Equal(t, "********", got["session_cookie"])

	formatFlag = formatTable
	buf.Reset()
	require.NoError(t, configShowCommand(&buf, path))
	assert.Contains(t, buf.String(), "stats.default_duration")
	assert.NotContains(t, buf.String(), "very-secret")
}
