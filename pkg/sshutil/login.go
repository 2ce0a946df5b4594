package sshutil

import (
	"fmt"
	"net"
	"strings"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Login is the parsed form of the one-line shell command the portal issues
// with an SSH credential: it pins the proxy's host key through a throwaway
// known_hosts file and restricts the algorithms ssh may negotiate.
type Login struct {
	User string
	Host string
	Port string

	// HostKey is the proxy's public key from the embedded known_hosts line.
	HostKey ssh.PublicKey

	Ciphers           []string
	HostKeyAlgorithms []string
	KexAlgorithms     []string
	MACs              []string

	// Command is the original text, kept for display and copying.
	Command string
}

// Address returns host:port for dialing.
func (l *Login) Address() string {
	return net.JoinHostPort(l.Host, l.Port)
}

// Target is the user@host form shown to the user.
func (l *Login) Target() string {
	if l.Port != "" && l.Port != "22" {
		return fmt.Sprintf("%s@%s:%s", l.User, l.Host, l.Port)
	}
	return l.User + "@" + l.Host
}

// ParseLoginCommand extracts the connection parameters from an issued
// login command of the form
//
//	echo '<known_hosts line>' > <host>_known_host ; ssh -o K=V ... [-p N] user@host
func ParseLoginCommand(command string) (*Login, error) {
	invalid := func(why string) error {
		return errors.New(errors.ErrSSH,
			"Couldn't understand the SSH command the portal issued: "+why,
			"Run the command shown by 'portalctl ssh' in a shell instead")
	}

	echoPart, sshPart, ok := strings.Cut(command, ";")
	if !ok {
		return nil, invalid("no ssh invocation")
	}

	start := strings.Index(echoPart, "'")
	end := strings.LastIndex(echoPart, "'")
	if start < 0 || end <= start {
		return nil, invalid("no known_hosts line")
	}
	_, _, key, _, _, err := ssh.ParseKnownHosts([]byte(echoPart[start+1 : end]))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"The issued known_hosts line doesn't parse", "Request a new credential")
	}

	login := &Login{Port: "22", HostKey: key, Command: command}

	fields := strings.Fields(sshPart)
	if len(fields) == 0 || fields[0] != "ssh" {
		return nil, invalid("expected 'ssh' after ';'")
	}
	for i := 1; i < len(fields); i++ {
		switch f := fields[i]; {
		case f == "-o" && i+1 < len(fields):
			i++
			k, v, _ := strings.Cut(fields[i], "=")
			login.setOption(k, v)
		case f == "-p" && i+1 < len(fields):
			i++
			login.Port = fields[i]
		case strings.HasPrefix(f, "-"):
			return nil, invalid("unexpected flag " + f)
		default:
			user, host, ok := strings.Cut(f, "@")
			if !ok || user == "" || host == "" {
				return nil, invalid("target '" + f + "' is not user@host")
			}
			login.User, login.Host = user, host
		}
	}
	if login.Host == "" {
		return nil, invalid("no user@host")
	}
	return login, nil
}

func (l *Login) setOption(key, value string) {
	list := strings.Split(value, ",")
	switch strings.ToLower(key) {
	case "ciphers":
		l.Ciphers = list
	case "hostkeyalgorithms":
		l.HostKeyAlgorithms = list
	case "kexalgorithms":
		l.KexAlgorithms = list
	case "macs":
		l.MACs = list
	}
}
