package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"autosort/internal/ipc"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect and act on files waiting to be moved",
	}

	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List staged files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PendingList()
				if err != nil {
					return err
				}
				if listJSON {
					return writeJSON(cmd, resp.Files)
				}
				renderPending(cmd, resp.Files, "No files pending")
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")

	cancelCmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Drop a staged file without moving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolvePendingID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.PendingCancel(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s (file left in place)\n", resp.File.FileName)
				return nil
			})
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a staged file now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolvePendingID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.PendingMove(id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch resp.Status {
				case "moved":
					fmt.Fprintf(out, "Moved %s -> %s\n", filepath.Base(resp.Source), resp.FinalPath)
					if resp.SourceLeftover {
						fmt.Fprintf(out, "Warning: the original could not be removed from %s\n", resp.Source)
					}
				default:
					fmt.Fprintf(out, "Skipped %s: %s\n", filepath.Base(resp.Source), resp.Reason)
				}
				return nil
			})
		},
	}

	pendingCmd.AddCommand(listCmd, cancelCmd, moveCmd)
	return pendingCmd
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Stage files already sitting in the watch folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rescan()
				if err != nil {
					return err
				}
				renderPending(cmd, resp.Staged, "Nothing new to stage")
				return nil
			})
		},
	}
}

func resolvePendingID(client *ipc.Client, prefix string) (string, error) {
	resp, err := client.PendingList()
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(resp.Files))
	for _, pf := range resp.Files {
		ids = append(ids, pf.ID)
	}
	return resolveID("pending file", prefix, ids)
}

func renderPending(cmd *cobra.Command, files []ipc.PendingFile, empty string) {
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, empty)
		return
	}
	now := time.Now()
	rows := make([][]string, 0, len(files))
	for _, pf := range files {
		rows = append(rows, []string{
			shortID(pf.ID),
			pf.FileName,
			pf.RuleName,
			pf.DestinationFolder,
			formatBytes(pf.FileSize),
			formatUntil(pf.MoveAt, now),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "File", "Rule", "Destination", "Size", "Moves"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
