package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/salahayoub/ethup/pkg/install"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download the latest reth and lighthouse releases",
	Args:  cobra.NoArgs,
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().Bool("force", false, "reinstall even when a binary is present")
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	if err := s.Layout.Ensure(); err != nil {
		return err
	}

	for _, bin := range []install.Binary{install.Reth, install.Lighthouse} {
		inst := install.New(bin, s.Layout, log)
		inst.Progress = cmd.ErrOrStderr()

		path := inst.Path()
		if v.GetBool("force") {
			err = inst.Install(cmd.Context())
		} else {
			path, err = inst.Ensure(cmd.Context())
		}
		if err != nil {
			return err
		}
		pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%s: %s", bin.Name, path)
	}
	return nil
}
