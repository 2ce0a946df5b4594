package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/portalctl/internal/dashboard"
	"github.com/rileyhilliard/portalctl/internal/errors"
	"github.com/rileyhilliard/portalctl/internal/ui"
	"github.com/rileyhilliard/portalctl/pkg/sshutil"
	"golang.org/x/term"
)

type sshOptions struct {
	Ref string

	// Master is 0-2, or -1 to ask.
	Master  int
	Connect bool
	Exec    string
}

// sshResult is the issued credential as printed by ssh without --connect.
type sshResult struct {
	ResourceID string `json:"resourceId"`
	Master     int    `json:"master"`
	Command    string `json:"command"`
	Password   string `json:"password"`
}

// exitCodeError carries a remote command's exit status out of Execute.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("remote command exited with status %d", e.code)
}

func sshCommand(ctx context.Context, a *app, w io.Writer, opts sshOptions) error {
	if _, err := a.bootstrap(ctx); err != nil {
		return err
	}
	cluster, err := a.resolve(ctx, opts.Ref)
	if err != nil {
		return err
	}

	master := opts.Master
	if master < 0 {
		if machineMode || !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New(errors.ErrSSH,
				"No master selected",
				"Pass --master 0, 1 or 2")
		}
		if master, err = ui.PickMaster(cluster.Name, dashboard.Masters); err != nil {
			return err
		}
	}

	sp := a.spinner(fmt.Sprintf("Requesting SSH credential for master-%d", master))
	sp.Start()
	cred, err := a.client.SSH(ctx, cluster.ResourceID, master)
	if err := sp.Finish(a.check(err, cluster.ResourceID)); err != nil {
		return err
	}
	a.log.Info("ssh credential issued for %s master-%d", cluster.ResourceID, master)

	if !opts.Connect && opts.Exec == "" {
		result := sshResult{ResourceID: cluster.ResourceID, Master: master, Command: cred.Command, Password: cred.Password}
		return render(w, a.format, result, func() string {
			return ui.RenderKeyValues([]ui.KeyValue{
				{Key: "Command", Value: cred.Command},
				{Key: "Password", Value: cred.Password},
			}, "-")
		})
	}

	login, err := sshutil.ParseLoginCommand(cred.Command)
	if err != nil {
		return err
	}
	client, err := sshutil.Dial(ctx, login, cred.Password, sshutil.DialOptions{
		Timeout:  a.cfg.SSH.DialTimeout,
		RetryFor: a.cfg.SSH.RetryFor,
		Logger:   a.log,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	var code int
	if opts.Exec != "" {
		code, err = client.Run(opts.Exec, w, os.Stderr)
	} else {
		fmt.Fprintln(os.Stderr, ui.MutedStyle().Render("Connected to "+client.String()))
		code, err = client.Shell(os.Stdin, w, os.Stderr)
	}
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitCodeError{code: code}
	}
	return nil
}
