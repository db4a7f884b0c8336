package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/punica-box/internal/errors"
)

func newListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available Punica boxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names, err := listerFunc(root.cfg).ListBoxes(cmd.Context())
			if err != nil {
				switch errors.KindOf(err) {
				case errors.KindNetwork:
					fmt.Fprintln(out, "Please check your network.")
				case errors.KindRateLimited, errors.KindOther:
					fmt.Fprintln(out, errors.PayloadOf(err))
				default:
					return fmt.Errorf("failed to list boxes: %w", err)
				}
				return errReported
			}

			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
