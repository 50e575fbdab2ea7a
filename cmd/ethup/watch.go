package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/salahayoub/ethup/pkg/status"
	"github.com/salahayoub/ethup/pkg/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live status dashboard",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.Duration("interval", 2*time.Second, "refresh interval")
	f.Duration("timeout", 5*time.Second, "deadline for one refresh (0 for none)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	pair, err := s.pair()
	if err != nil {
		return err
	}
	interval, err := duration(v, "interval")
	if err != nil {
		return err
	}
	timeout, err := duration(v, "timeout")
	if err != nil {
		return err
	}

	// The dashboard owns the terminal; keep log lines off it.
	quiet := log.Level(zerolog.Disabled)

	fetcher := &tui.AggregatorFetcher{
		Aggregator: status.NewAggregator(&http.Client{}, quiet),
		Execution:  pair.Execution,
		Consensus:  pair.Consensus,
		Timeout:    timeout,
	}
	app := tui.NewApp(fetcher, tui.NewModel(s.Chain, interval), quiet)
	return app.Run(cmd.Context())
}
