package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/MikeSquared-Agency/callboard/internal/metrics"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var interval string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <file>",
		Short: "Aggregate call records into interval metrics",
		Long:  "Reads a JSON array of call records ({startTime, endTime, analysis}) and prints per-interval averages.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := metrics.ParseInterval(interval)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var records []metrics.CallRecord
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse call records: %w", err)
			}

			h := metrics.Aggregate(records, iv)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(h)
			}
			if len(h.Intervals) == 0 {
				fmt.Fprintln(out, "No calls with a start time")
				return nil
			}
			fmt.Fprintln(out, renderHistory(h))
			return nil
		},
	}
	cmd.Flags().StringVarP(&interval, "interval", "i", string(metrics.Daily), "Bucket size: daily, weekly or monthly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the aggregate as JSON")
	return cmd
}

// renderHistory draws one row per interval. Metric columns are right-aligned.
func renderHistory(h metrics.History) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Interval", "Avg Minutes", "Positive %", "Resolved %"})
	for i, key := range h.Intervals {
		tw.AppendRow(table.Row{
			key,
			formatFloat(h.AverageDurations[i]),
			formatFloat(h.PositiveSentimentPercentages[i]),
			formatFloat(h.ResolvedPercentages[i]),
		})
	}

	configs := []table.ColumnConfig{{Number: 1, AlignHeader: text.AlignLeft}}
	for n := 2; n <= 4; n++ {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
