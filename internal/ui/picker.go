package ui

import (
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/portalctl/internal/errors"
)

// MasterOptions lists master-0 .. master-(count-1) for a select field.
func MasterOptions(count int) []huh.Option[int] {
	opts := make([]huh.Option[int], count)
	for i := range opts {
		opts[i] = huh.NewOption(fmt.Sprintf("master-%d", i), i)
	}
	return opts
}

// PickMaster asks which master node to request an SSH credential for.
func PickMaster(cluster string, count int) (int, error) {
	master := 0
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("SSH into which master of " + cluster + "?").
				Options(MasterOptions(count)...).
				Value(&master),
		),
	)

	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return 0, errors.New(errors.ErrSSH, "Cancelled", "Pass --master to skip the prompt")
		}
		return 0, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to get user input",
			"Pass --master to skip the prompt")
	}
	return master, nil
}
