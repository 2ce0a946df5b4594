package sshutil

import (
	stderrors "errors"
	"io"

	"github.com/rileyhilliard/portalctl/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

// fdReader is satisfied by *os.File.
type fdReader interface {
	io.Reader
	Fd() uintptr
}

func (c *Client) session(stdout, stderr io.Writer) (*ssh.Session, error) {
	s, err := c.Client.NewSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't open a session on "+c.Address,
			"The connection may have dropped; run the command again.")
	}
	s.Stdout, s.Stderr = stdout, stderr
	return s, nil
}

// exitCode turns the result of Run or Wait into the remote exit status.
// ok is false when the command never produced one.
func exitCode(err error) (code int, ok bool) {
	var exit *ssh.ExitError
	var missing *ssh.ExitMissingError
	switch {
	case err == nil:
		return 0, true
	case stderrors.As(err, &exit):
		return exit.ExitStatus(), true
	case stderrors.As(err, &missing):
		// Some nodes close the channel without sending a status.
		return 0, true
	}
	return -1, false
}

// Run executes cmd on the node with output streamed to stdout and stderr.
// A non-zero remote exit is returned as the code, not as an error; -1
// means the command didn't run.
func (c *Client) Run(cmd string, stdout, stderr io.Writer) (int, error) {
	s, err := c.session(stdout, stderr)
	if err != nil {
		return -1, err
	}
	defer s.Close()

	runErr := s.Run(cmd)
	if code, ok := exitCode(runErr); ok {
		return code, nil
	}
	return -1, errors.WrapWithCode(runErr, errors.ErrSSH, "Couldn't run: "+cmd,
		"Check the command exists on the node.")
}

// Shell opens an interactive login shell. A terminal stdin goes into raw
// mode for the session and sizes the PTY; otherwise the PTY is 80x24.
func (c *Client) Shell(stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	s, err := c.session(stdout, stderr)
	if err != nil {
		return -1, err
	}
	defer s.Close()
	s.Stdin = stdin

	cols, rows := 80, 24
	if f, ok := stdin.(fdReader); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		saved, err := term.MakeRaw(fd)
		if err != nil {
			return -1, errors.WrapWithCode(err, errors.ErrSSH, "Couldn't put the terminal in raw mode", "")
		}
		defer func() { _ = term.Restore(fd, saved) }()
		if w, h, err := term.GetSize(fd); err == nil {
			cols, rows = w, h
		}
	}

	modes := ssh.TerminalModes{ssh.ECHO: 1, ssh.TTY_OP_ISPEED: 14400, ssh.TTY_OP_OSPEED: 14400}
	if err := s.RequestPty("xterm-256color", rows, cols, modes); err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrSSH, "The node refused a PTY",
			"Use --exec to run a single command instead.")
	}
	if err := s.Shell(); err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrSSH, "Couldn't start a shell",
			"Check the account has shell access on the node.")
	}

	waitErr := s.Wait()
	if code, ok := exitCode(waitErr); ok {
		return code, nil
	}
	return -1, errors.WrapWithCode(waitErr, errors.ErrSSH, "Shell session ended unexpectedly", "")
}
