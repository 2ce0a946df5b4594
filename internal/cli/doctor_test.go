package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/portalctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doctorConfig(t *testing.T, f *fakePortal) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PortalURL = f.srv.URL
	cfg.SessionCookie = "s"
	cfg.KubeconfigDir = t.TempDir()
	path := filepath.Join(t.TempDir(), "portalctl.yaml")
	require.NoError(t, config.Write(path, cfg))
	return path
}

func TestDoctorCommand(t *testing.T) {
	oldFormat := formatFlag
	defer func() { formatFlag = oldFormat }()
	formatFlag = formatJSON

	tests := []struct {
		name     string
		status   int
		allClear bool
		fail     int
	}{
		{name: "healthy", allClear: true},
		{name: "expired session", status: http.StatusForbidden, fail: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakePortal(t)
			if tt.status != 0 {
				f.fail("/api/info", tt.status)
			}
			opts := doctorOptions{
				ConfigPath:    doctorConfig(t, f),
				SSHConfigPath: filepath.Join(t.TempDir(), "ssh_config"),
			}

			var buf bytes.Buffer
			err := doctorCommand(context.Background(), &buf, opts)

			var got DoctorOutput
			decodeEnvelope(t, buf.Bytes(), &got)
			assert.Equal(t, tt.allClear, got.Summary.AllClear)
			assert.Equal(t, tt.fail, got.Summary.Fail)
			assert.Equal(t, 1, f.count("/api/info"))

			var names []string
			for _, c := range got.Categories {
				names = append(names, c.Name)
			}
			assert.Equal(t, []string{"CONFIG", "PORTAL", "LOCAL"}, names)

			if tt.fail == 0 {
				assert.NoError(t, err)
				return
			}
			var exit *exitCodeError
			require.True(t, stderrors.As(err, &exit))
			assert.Equal(t, 1, exit.code)
		})
	}
}

func TestDoctorCommand_InvalidConfigSkipsPortal(t *testing.T) {
	oldFormat := formatFlag
	defer func() { formatFlag = oldFormat }()
	formatFlag = formatTable

	path := filepath.Join(t.TempDir(), "portalctl.yaml")
	cfg := config.DefaultConfig()
	cfg.PortalURL = "https://portal.example.com"
	require.NoError(t, config.Write(path, cfg))
	require.NoError(t, config.SetValue(path, "stats.default_duration", "3h"))

	var buf bytes.Buffer
	err := doctorCommand(context.Background(), &buf, doctorOptions{
		ConfigPath:    path,
		SSHConfigPath: filepath.Join(t.TempDir(), "ssh_config"),
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "CONFIG")
	assert.NotContains(t, out, "PORTAL")
	assert.Contains(t, out, "LOCAL")
	assert.Contains(t, out, "issue")
}
