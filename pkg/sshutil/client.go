package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/logger"
	"golang.org/x/crypto/ssh"
)

// Client wraps an SSH connection to the portal's SSH proxy.
type Client struct {
	*ssh.Client
	Login   *Login
	Address string // The resolved address (host:port)
}

func (c *Client) String() string {
	return fmt.Sprintf("%s via %s", c.Login.Target(), c.Address)
}

// DialOptions tunes Dial.
type DialOptions struct {
	// Timeout bounds each connection attempt.
	Timeout time.Duration

	// RetryFor keeps retrying failed attempts with exponential backoff until
	// it elapses. Zero tries once.
	RetryFor time.Duration

	// ConfigPath is the ssh_config consulted for HostName and Port
	// overrides. Empty means ~/.ssh/config.
	ConfigPath string

	Logger logger.Logger
}

// Dial connects to the proxy named by login, authenticating with the issued
// password and accepting only the host key pinned in the login command.
func Dial(ctx context.Context, login *Login, password string, opts DialOptions) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	address := resolveAddress(opts.ConfigPath, login)
	config := clientConfig(login, password, opts.Timeout)

	var client *Client
	attempt := 0
	op := func() error {
		attempt++
		c, err := dialOnce(ctx, address, config, opts.Timeout)
		if err != nil {
			var mismatch *HostKeyMismatchError
			if stderrors.As(err, &mismatch) {
				return backoff.Permanent(err)
			}
			return err
		}
		client = &Client{Client: c, Login: login, Address: address}
		return nil
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if opts.RetryFor > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 500 * time.Millisecond
		eb.MaxElapsedTime = opts.RetryFor
		b = eb
	}
	notify := func(err error, wait time.Duration) {
		log.Debug("ssh dial %s attempt %d failed, retrying in %s: %v", address, attempt, wait, err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, dialError(login, address, err)
	}
	log.Info("ssh connected to %s as %s after %d attempt(s)", address, login.User, attempt)
	return client, nil
}

func dialOnce(ctx context.Context, address string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func clientConfig(login *Login, password string, timeout time.Duration) *ssh.ClientConfig {
	cfg := &ssh.ClientConfig{
		User: login.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// Some proxies only offer keyboard-interactive; answer every
			// prompt with the issued password.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback:   pinnedHostKey(login.HostKey),
		HostKeyAlgorithms: login.HostKeyAlgorithms,
		Timeout:           timeout,
	}
	cfg.Ciphers = login.Ciphers
	cfg.KeyExchanges = login.KexAlgorithms
	cfg.MACs = login.MACs
	return cfg
}

// pinnedHostKey accepts exactly want.
func pinnedHostKey(want ssh.PublicKey) ssh.HostKeyCallback {
	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		if want != nil && bytes.Equal(key.Marshal(), want.Marshal()) {
			return nil
		}
		wantType := "none"
		if want != nil {
			wantType = want.Type()
		}
		return &HostKeyMismatchError{Hostname: hostname, ReceivedType: key.Type(), WantType: wantType}
	}
}

func dialError(login *Login, address string, err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}

	var mismatch *HostKeyMismatchError
	if stderrors.As(err, &mismatch) {
		return errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
	}

	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach the SSH proxy at %s", address),
			suggestionForDialError(err))
	}
	return errors.WrapWithCode(err, errors.ErrSSH,
		fmt.Sprintf("SSH login as %s didn't go through", login.Target()),
		suggestionForHandshakeError(err))
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "The SSH proxy isn't accepting connections. Check the portal is healthy."
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection or VPN."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. The proxy might be blocked by a firewall."
	}
	return "Make sure the portal host is reachable"
}

func suggestionForHandshakeError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		return "The credential was rejected. They expire after a minute; request a new one."
	}
	if strings.Contains(errStr, "no common algorithm") {
		return "The proxy and client share no algorithm. Request a new command from the portal."
	}
	return "Something went wrong during SSH setup. Try the issued command in a shell."
}

// HostKeyMismatchError is returned when the proxy presents a key other
// than the one pinned in the login command.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	WantType     string
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps for the mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	return fmt.Sprintf(
		"The server's host key doesn't match the one the portal issued.\n"+
			"  Issued type: %s\n"+
			"  Server sent: %s\n\n"+
			"  Something between you and the portal may be intercepting SSH.\n"+
			"  Check ~/.ssh/config doesn't redirect this host elsewhere.",
		e.WantType, e.ReceivedType)
}
