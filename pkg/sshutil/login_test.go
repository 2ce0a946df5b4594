package sshutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func testHostKey(t *testing.T) ssh.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return signer
}

func loginCommand(host string, key ssh.PublicKey, port string) string {
	cmd := fmt.Sprintf("echo '%s' > %s_known_host ; ssh -o UserKnownHostsFile=%s_known_host "+
		"-o Ciphers=aes256-ctr -o HostKeyAlgorithms=rsa-sha2-512 -o KexAlgorithms=ecdh-sha2-nistp256 "+
		"-o MACs=hmac-sha2-256-etm@openssh.com",
		knownhosts.Line([]string{host}, key), host, host)
	if port != "" {
		cmd += " -p " + port
	}
	return cmd + " alice@" + host
}

func TestParseLoginCommand(t *testing.T) {
	key := testHostKey(t).PublicKey()

	login, err := ParseLoginCommand(loginCommand("portal.example.com", key, ""))
	require.NoError(t, err)

	assert.Equal(t, "alice", login.User)
	assert.Equal(t, "portal.example.com", login.Host)
	assert.Equal(t, "22", login.Port)
	assert.Equal(t, "portal.example.com:22", login.Address())
	assert.Equal(t, "alice@portal.example.com", login.Target())
	assert.Equal(t, key.Marshal(), login.HostKey.Marshal())
	assert.Equal(t, []string{"aes256-ctr"}, login.Ciphers)
	assert.Equal(t, []string{"rsa-sha2-512"}, login.HostKeyAlgorithms)
	assert.Equal(t, []string{"ecdh-sha2-nistp256"}, login.KexAlgorithms)
	assert.Equal(t, []string{"hmac-sha2-256-etm@openssh.com"}, login.MACs)
}

func TestParseLoginCommand_DevPort(t *testing.T) {
	login, err := ParseLoginCommand(loginCommand("localhost", testHostKey(t).PublicKey(), "2222"))
	require.NoError(t, err)
	assert.Equal(t, "2222", login.Port)
	assert.Equal(t, "alice@localhost:2222", login.Target())
}

func TestParseLoginCommand_Invalid(t *testing.T) {
	key := testHostKey(t).PublicKey()
	line := knownhosts.Line([]string{"h"}, key)

	tests := []struct {
		name string
		cmd  string
	}{
		{name: "empty", cmd: ""},
		{name: "no ssh part", cmd: "echo '" + line + "' > h_known_host"},
		{name: "no quotes", cmd: "echo nothing ; ssh a@h"},
		{name: "bad known hosts", cmd: "echo 'h not-a-key' > x ; ssh a@h"},
		{name: "not ssh", cmd: "echo '" + line + "' > x ; scp a@h"},
		{name: "no target", cmd: "echo '" + line + "' > x ; ssh -o MACs=x"},
		{name: "unknown flag", cmd: "echo '" + line + "' > x ; ssh -A a@h"},
		{name: "target without user", cmd: "echo '" + line + "' > x ; ssh h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLoginCommand(tt.cmd)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrSSH))
		})
	}
}
