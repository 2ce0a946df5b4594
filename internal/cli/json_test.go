package cli

import (
	"bytes"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToJSON(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "config missing", err: errors.New(errors.ErrConfig, "portal_url isn't set", ""), code: ErrCodeConfigNotFound},
		{name: "config file not found", err: errors.New(errors.ErrConfig, "Config file not found", ""), code: ErrCodeConfigNotFound},
		{name: "config invalid", err: errors.New(errors.ErrConfig, "Unknown output format 'xml'", ""), code: ErrCodeConfigInvalid},
		{name: "auth", err: errors.FromStatus(http.StatusForbidden, "GET", "/api/clusters", ""), code: ErrCodeAuthRequired},
		{name: "not found", err: errors.FromStatus(http.StatusNotFound, "GET", "/api/x", ""), code: ErrCodeNotFound},
		{name: "fetch", err: errors.FromStatus(http.StatusBadGateway, "GET", "/api/x", ""), code: ErrCodeFetchFailed},
		{name: "ssh", err: errors.New(errors.ErrSSH, "no", ""), code: ErrCodeSSHFailed},
		{name: "kubeconfig", err: errors.New(errors.ErrKubeconfig, "no", ""), code: ErrCodeKubeconfigFailed},
		{name: "plain", err: stderrors.New("boom"), code: ErrCodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorToJSON(tt.err).Code)
		})
	}
	assert.Nil(t, ErrorToJSON(nil))
}

func TestErrorToJSON_Details(t *testing.T) {
	j := ErrorToJSON(errors.FromStatus(http.StatusBadGateway, "GET", "/api/x", "upstream down"))
	assert.Equal(t, "GET /api/x returned 502 Bad Gateway", j.Message)
	assert.Equal(t, map[string]interface{}{"status": http.StatusBadGateway}, j.Details)

	j = ErrorToJSON(errors.New(errors.ErrSSH, "no", "retry"))
	assert.Nil(t, j.Details)
	assert.Equal(t, "retry", j.Suggestion)
}

func TestResolveFormat(t *testing.T) {
	oldMode, oldFormat := machineMode, formatFlag
	defer func() { machineMode, formatFlag = oldMode, oldFormat }()

	tests := []struct {
		name       string
		machine    bool
		flag       string
		configured string
		want       string
		wantErr    bool
	}{
		{name: "default", want: formatTable},
		{name: "configured", configured: "YAML", want: formatYAML},
		{name: "flag wins", flag: "json", configured: "yaml", want: formatJSON},
		{name: "json flag wins", machine: true, flag: "yaml", want: formatJSON},
		{name: "unknown", flag: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machineMode, formatFlag = tt.machine, tt.flag
			got, err := resolveFormat(tt.configured)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	data := kubeconfigResult{Path: "/tmp/k", Merged: true}
	table := func() string { return "table\n" }

	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatYAML, data, table))
	assert.Contains(t, buf.String(), "path: /tmp/k")
	assert.Contains(t, buf.String(), "merged: true")

	buf.Reset()
	require.NoError(t, render(&buf, formatTable, data, table))
	assert.Equal(t, "table\n", buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, formatJSON, data, table))
	env := decodeEnvelope(t, buf.Bytes(), nil)
	assert.True(t, env.Success)
}
