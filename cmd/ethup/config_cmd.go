package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salahayoub/ethup/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved node command lines without starting anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(v)
		if err != nil {
			return err
		}
		pair, err := s.pair()
		if err != nil {
			return err
		}
		return writeInvocations(cmd.OutOrStdout(), pair)
	},
}

func writeInvocations(w io.Writer, p config.Pair) error {
	for _, inv := range []config.Invocation{p.Execution.Invocation(), p.Consensus.Invocation()} {
		if _, err := fmt.Fprintf(w, "%s %s\n", inv.Binary, strings.Join(inv.Args, " ")); err != nil {
			return err
		}
	}
	return nil
}
