package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKubeconfigDirCheck(t *testing.T) {
	ctx := context.Background()

	r := (&KubeconfigDirCheck{}).Run(ctx)
	assert.Equal(t, StatusWarn, r.Status)
	assert.False(t, r.Fixable)

	dir := t.TempDir()
	r = (&KubeconfigDirCheck{Dir: dir}).Run(ctx)
	assert.Equal(t, StatusPass, r.Status)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file must be cleaned up")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	r = (&KubeconfigDirCheck{Dir: file}).Run(ctx)
	assert.Equal(t, StatusFail, r.Status)
}

func TestKubeconfigDirCheck_Fix(t *testing.T) {
	ctx := context.Background()
	c := &KubeconfigDirCheck{Dir: filepath.Join(t.TempDir(), "kube", "portal")}

	var r Report
	r.Run(ctx, c)
	require.Equal(t, StatusWarn, r.Results()[0].Status)
	require.True(t, r.Results()[0].Fixable)

	assert.Equal(t, 1, r.Fix(ctx))
	assert.Equal(t, StatusPass, r.Results()[0].Status)
	assert.DirExists(t, c.Dir)
}

func TestSSHConfigCheck(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	tests := []struct {
		name string
		path string
		want CheckStatus
	}{
		{name: "missing", path: filepath.Join(dir, "none"), want: StatusPass},
		{name: "plain", path: write("plain", "Host proxy\n  HostName 10.0.0.1\n  Port 2222\n"), want: StatusPass},
		{name: "match block", path: write("match", "Host a\n  Port 22\nMatch host b\n  Port 23\n"), want: StatusWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := (&SSHConfigCheck{Path: tt.path}).Run(ctx)
			assert.Equal(t, tt.want, r.Status, r.Message)
		})
	}
}
