package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/punica-box/internal/config"
)

// saveConfigFunc allows for mocking in tests
var saveConfigFunc = config.SaveConfig

func newConfigCmd(root *rootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration punica-box runs with: the configuration file merged
with PUNICA_* environment variables and defaults. With --save the result is
written back to the configuration file.`,
		Example: `  punica-box config
  PUNICA_GIT_TRANSPORT=go-git punica-box config --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			data, err := root.cfg.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))

			if !save {
				return nil
			}
			if err := saveConfigFunc(root.cfg, root.configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(out, "Configuration saved to %s\n", root.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Write the effective configuration to the configuration file")

	return cmd
}
