package kubeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
)

const sample = `apiVersion: v1
kind: Config
clusters:
- name: c1
  cluster:
    server: https://api.c1.example.com:6443
contexts:
- name: admin
  context:
    cluster: c1
    user: system:admin
current-context: admin
users:
- name: system:admin
  user:
    token: secret
`

func TestParseAndSummarize(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	s := Summarize(cfg)
	assert.Equal(t, "admin", s.CurrentContext)
	assert.Equal(t, "https://api.c1.example.com:6443", s.Server)
	assert.Equal(t, "system:admin", s.User)
	assert.Equal(t, []string{"admin"}, s.Contexts)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "html", data: "<html>error</html>"},
		{name: "context to missing cluster", data: `apiVersion: v1
kind: Config
contexts:
- name: x
  context:
    cluster: nope
    user: u
current-context: x
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.True(t, errors.IsCode(err, errors.ErrKubeconfig))
		})
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := Save(dir, "../cluster.kubeconfig", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cluster.kubeconfig"), path, "filename can't escape dir")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMerge(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(target, []byte(`apiVersion: v1
kind: Config
clusters:
- name: other
  cluster:
    server: https://other:6443
contexts:
- name: other
  context:
    cluster: other
    user: other
current-context: other
users:
- name: other
  user:
    token: o
`), 0o600))

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, Merge(target, cfg))

	merged, err := clientcmd.LoadFromFile(target)
	require.NoError(t, err)
	assert.Equal(t, "admin", merged.CurrentContext)
	assert.Contains(t, merged.Clusters, "other")
	assert.Contains(t, merged.Clusters, "c1")
	assert.Contains(t, merged.AuthInfos, "system:admin")
}

func TestMerge_CreatesTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "kube", "config")
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.NoError(t, Merge(target, cfg))

	merged, err := clientcmd.LoadFromFile(target)
	require.NoError(t, err)
	assert.Equal(t, "admin", merged.CurrentContext)
}
