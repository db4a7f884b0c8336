package main

import (
	"github.com/spf13/cobra"

	"github.com/NicabarNimble/punica-box/internal/config"
)

func newInitCmd(root *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Punica project",
		Long: `Initialize an empty directory with the default Punica project box.
The box can be changed with init_box in the configuration file.`,
		Example: `  punica-box init
  punica-box init --path ./my-dapp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(path)
			if err != nil {
				return err
			}
			p := provisionerFunc(root.cfg, cmd.OutOrStdout())
			result, err := p.Init(cmd.Context(), target)
			return report(cmd.OutOrStdout(), root.cfg.InitBox, result, err, true)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Directory to initialize (default: current directory)")

	return cmd
}
