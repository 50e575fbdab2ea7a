package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/salahayoub/ethup/pkg/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query both nodes once and print their status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.Bool("json", false, "print the snapshot as JSON")
	f.Duration("timeout", 10*time.Second, "deadline for all queries (0 for none)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	timeout, err := duration(v, "timeout")
	if err != nil {
		return err
	}
	pair, err := s.pair()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	agg := status.NewAggregator(&http.Client{}, log)
	snap, err := agg.Status(ctx, pair.Execution, pair.Consensus)

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(snap); encErr != nil {
			return encErr
		}
		return err
	}

	if renderErr := writeReport(out, snap); renderErr != nil {
		return renderErr
	}
	return err
}

// writeReport prints one table per node. A side that could not be resolved is
// left out rather than shown with made-up values.
func writeReport(w io.Writer, snap status.Snapshot) error {
	if snap.Execution != nil {
		if err := writeSection(w, "Execution (reth)", snap.Execution.Fields()); err != nil {
			return err
		}
	}
	if snap.Consensus != nil {
		if err := writeSection(w, "Consensus (lighthouse)", snap.Consensus.Fields()); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, title string, fields []status.Field) error {
	data := make(pterm.TableData, 0, len(fields))
	for _, f := range fields {
		data = append(data, []string{f.Label, f.Value})
	}
	table, err := pterm.DefaultTable.WithHasHeader(false).WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n\n", pterm.DefaultSection.Sprint(title), table)
	return err
}
