package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/punica-box/internal/box"
	"github.com/NicabarNimble/punica-box/internal/config"
	"github.com/NicabarNimble/punica-box/internal/errors"
)

const boxHelp = `

    Commands:

      Compile contracts: punica compile
      Deploy contracts:  punica deploy
      Test contracts:    punica test
`

type unboxOptions struct {
	path string
}

func newUnboxCmd(root *rootOptions) *cobra.Command {
	opts := &unboxOptions{}

	cmd := &cobra.Command{
		Use:   "unbox <box>",
		Short: "Download a Punica box",
		Long: `Download a box into an empty directory and apply its punica-box.json manifest.
A bare name refers to <name>-box in the box organization; owner/name refers to
any GitHub repository.`,
		Example: `  punica-box unbox tutorialtoken
  punica-box unbox tutorialtoken --path ./my-dapp
  punica-box unbox someone/my-box`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(opts.path)
			if err != nil {
				return err
			}
			p := provisionerFunc(root.cfg, cmd.OutOrStdout())
			result, err := p.Unbox(cmd.Context(), args[0], target)
			return report(cmd.OutOrStdout(), args[0], result, err, false)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "Directory to unbox into (default: current directory)")

	return cmd
}

// report prints the outcome of an unbox and returns errReported on failure.
// Init reports a missing box the way it reports an invalid name, since the
// user never typed one.
func report(w io.Writer, boxName string, result *box.Result, err error, initBox bool) error {
	if err != nil {
		for _, line := range failureLines(boxName, err, initBox) {
			fmt.Fprintln(w, line)
		}
		return errReported
	}

	fmt.Fprintln(w, "Unbox successful. Sweet!")
	if result != nil && result.CleanupErr != nil {
		fmt.Fprintf(w, "Warning: some files listed in %s could not be removed: %v\n", box.ManifestFile, result.CleanupErr)
	}
	fmt.Fprint(w, boxHelp)
	return nil
}

func failureLines(boxName string, err error, initBox bool) []string {
	switch errors.KindOf(err) {
	case errors.KindTargetNotEmpty:
		return []string{"This directory is non-empty..."}
	case errors.KindInvalidBoxName:
		return []string{"Please check the box name you input."}
	case errors.KindBoxNotFound:
		if initBox {
			return []string{"Please check the box name you input."}
		}
		return []string{fmt.Sprintf("Punica Box %s doesn't exist.", boxName)}
	case errors.KindNetwork:
		return []string{"Please check your network.", "Unbox failed. Sorry."}
	case errors.KindTool:
		return []string{"Please check your Git tool.", "Unbox failed. Sorry."}
	case errors.KindOther:
		if payload := errors.PayloadOf(err); payload != "" {
			return []string{payload, "Unbox failed. Sorry."}
		}
	}
	return []string{fmt.Sprintf("Error: %v", err), "Unbox failed. Sorry."}
}
