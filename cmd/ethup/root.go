package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/salahayoub/ethup/pkg/layout"
)

var (
	v   = viper.New()
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ethup",
	Short:         "Run an Ethereum execution + consensus node pair",
	Long:          "ethup installs reth and lighthouse, runs them as one unit and reports their status.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(v, cmd.Flags()); err != nil {
			return err
		}
		log = newLogger(os.Stderr, v.GetString("log-level"), v.GetBool("log-json"))
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("home", "", "ethup root directory (default ~/.ethup)")
	pf.String("config", "", "config file (default <home>/config.yaml)")
	pf.String("chain", "hoodi", "chain profile: hoodi, mainnet or sepolia")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.Bool("log-json", false, "log JSON instead of console output")
	pf.Uint("el-http-port", 0, "execution JSON-RPC port override")
	pf.Uint("el-authrpc-port", 0, "execution auth RPC port override")
	pf.Uint("cl-http-port", 0, "consensus REST API port override")
	pf.String("checkpoint-sync-url", "", "consensus checkpoint sync URL override")
	pf.Bool("no-checkpoint-sync", false, "sync the consensus node from genesis")

	rootCmd.AddCommand(runCmd, statusCmd, watchCmd, installCmd, historyCmd, configCmd)
}

// initConfig binds flags, ETHUP_* environment variables and the optional
// config file into v. Flags win over the environment, which wins over the file.
func initConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix("ETHUP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	file := v.GetString("config")
	explicit := file != ""
	if !explicit {
		l, err := resolveLayout(v)
		if err != nil {
			return err
		}
		file = l.ConfigFile()
	}

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", file, err)
	}
	return nil
}

// resolveLayout returns the layout under --home, or ~/.ethup.
func resolveLayout(v *viper.Viper) (layout.Layout, error) {
	if home := v.GetString("home"); home != "" {
		return layout.New(home), nil
	}
	return layout.Default()
}
