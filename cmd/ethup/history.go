package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/salahayoub/ethup/pkg/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	limit := v.GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	if err := s.Layout.Ensure(); err != nil {
		return err
	}

	j, err := journal.Open(s.Layout.JournalFile())
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.List(limit)
	if err != nil {
		return err
	}
	return writeHistory(cmd.OutOrStdout(), runs)
}

func writeHistory(w io.Writer, runs []journal.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	data := pterm.TableData{{"ID", "Chain", "Started", "Duration", "Outcome", "Detail"}}
	for _, r := range runs {
		duration := "-"
		if d := r.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		data = append(data, []string{
			strconv.FormatUint(r.ID, 10),
			r.Chain,
			r.Started.Local().Format(time.DateTime),
			duration,
			string(r.Outcome),
			detail(r),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader(true).WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

func detail(r journal.Run) string {
	switch r.Outcome {
	case journal.Failed:
		if r.FailedRole != "" {
			return fmt.Sprintf("%s exited with code %d", r.FailedRole, r.ExitCode)
		}
		return r.Error
	case journal.SpawnFailed:
		return r.Error
	}
	return ""
}
