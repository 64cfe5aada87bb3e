package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autosort/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Review and undo past moves",
	}

	var limit int
	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded moves, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(limit)
				if err != nil {
					return err
				}
				if listJSON {
					return writeJSON(cmd, resp.Records)
				}
				out := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(out, "No moves recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					rows = append(rows, []string{
						shortID(rec.ID),
						formatWhen(rec.Timestamp),
						rec.RuleName,
						rec.OriginalPath,
						rec.NewPath,
						formatBytes(rec.FileSize),
						yesNo(rec.CanUndo),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "When", "Rule", "From", "To", "Size", "Undoable"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many records (0 shows all)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show move counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stats, err := client.HistoryStats()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Period", "Moved"},
					[][]string{
						{"Today", fmt.Sprintf("%d", stats.Today)},
						{"This week", fmt.Sprintf("%d", stats.ThisWeek)},
						{"All time", fmt.Sprintf("%d", stats.Total)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	undoCmd := &cobra.Command{
		Use:   "undo <id>",
		Short: "Move a file back to where it was found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				list, err := client.HistoryList(0)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(list.Records))
				for _, rec := range list.Records {
					ids = append(ids, rec.ID)
				}
				id, err := resolveID("history record", args[0], ids)
				if err != nil {
					return err
				}
				resp, err := client.HistoryUndo(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", resp.Record.OriginalPath)
				return nil
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget all recorded moves (files are not touched)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d record(s)\n", resp.Removed)
				return nil
			})
		},
	}

	historyCmd.AddCommand(listCmd, statsCmd, undoCmd, clearCmd)
	return historyCmd
}
