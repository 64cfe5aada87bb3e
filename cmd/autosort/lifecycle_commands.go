package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autosort/internal/daemonctl"
	"autosort/internal/ipc"
	"autosort/internal/preflight"
)

func newLifecycleCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start watching, launching the daemon if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{SocketPath: ctx.socketPath(), ConfigPath: ctx.configFlagValue()},
				10*time.Second,
			)
			if err != nil {
				return err
			}
			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Watching started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Already watching")
			default:
				fmt.Fprintln(stdout, result.Message)
			}
			return nil
		},
	}

	var exit bool
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop watching (pending files stay staged)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if exit {
				pid, err := daemonctl.Shutdown(ctx.socketPath(), 5*time.Second)
				if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
					fmt.Fprintln(stdout, "Daemon is not running")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Daemon (pid %d) exited\n", pid)
				return nil
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(stdout, "Watching stopped")
				return nil
			})
		},
	}
	stopCmd.Flags().BoolVar(&exit, "exit", false, "Also terminate the daemon process")

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Ignore new files until resumed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Pause()
				if err != nil {
					return err
				}
				if !resp.Paused {
					fmt.Fprintln(cmd.OutOrStdout(), "Not watching; nothing to pause")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Watching paused")
				return nil
			})
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume handling new files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Resume(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Watching resumed")
				return nil
			})
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, watcher, and activity status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ipc.Dial(ctx.socketPath())
			if err != nil {
				if !daemonctl.IsDaemonUnavailable(err) {
					return wrapDialError(err, ctx.socketPath())
				}
				if statusJSON {
					return writeJSON(cmd, map[string]any{"daemon_running": false})
				}
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Autosort", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, "not running", colorize))
				if cfg, cfgErr := ctx.ensureConfig(); cfgErr == nil {
					fmt.Fprintln(stdout, renderStatusLine("Watch folder", statusInfo, cfg.Paths.WatchDir, colorize))
					for _, line := range checkLines(preflight.RunAll(cfg), colorize) {
						fmt.Fprintln(stdout, line)
					}
				}
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			stats, err := client.HistoryStats()
			if err != nil {
				return err
			}
			cfgResp, err := client.ConfigGet()
			if err != nil {
				return err
			}
			checks := preflight.RunAll(&cfgResp.Config)
			if statusJSON {
				return writeJSON(cmd, map[string]any{
					"daemon_running": true,
					"status":         status,
					"stats":          stats,
					"checks":         checks,
				})
			}
			for _, line := range statusLines(status, stats, checks, shouldColorize(stdout)) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	return []*cobra.Command{startCmd, stopCmd, pauseCmd, resumeCmd, statusCmd}
}

func statusLines(status *ipc.StatusResponse, stats *ipc.HistoryStatsResponse, checks []preflight.Result, colorize bool) []string {
	wf := status.Workflow
	lines := renderSectionHeader("Autosort", colorize)
	lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))

	switch {
	case wf.Running && wf.Paused:
		lines = append(lines, renderStatusLine("Watcher", statusWarn, "paused", colorize))
	case wf.Running:
		lines = append(lines, renderStatusLine("Watcher", statusOK, "watching since "+formatWhen(wf.StartedAt), colorize))
	default:
		lines = append(lines, renderStatusLine("Watcher", statusWarn, "stopped", colorize))
	}
	lines = append(lines,
		renderStatusLine("Watch folder", statusInfo, wf.WatchDir, colorize),
		renderStatusLine("Destination root", statusInfo, wf.DestinationRoot, colorize),
		renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", wf.Pending), colorize),
		renderStatusLine("Rules", statusInfo, fmt.Sprintf("%d", status.Rules), colorize),
	)
	if strings.TrimSpace(wf.LastError) != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, wf.LastError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Activity", colorize)...)
	lines = append(lines,
		renderStatusLine("This run", statusInfo, fmt.Sprintf("%d moved", wf.MovedThisRun), colorize),
		renderStatusLine("Today", statusInfo, fmt.Sprintf("%d moved", stats.Today), colorize),
		renderStatusLine("This week", statusInfo, fmt.Sprintf("%d moved", stats.ThisWeek), colorize),
		renderStatusLine("All time", statusInfo, fmt.Sprintf("%d moved", stats.Total), colorize),
	)
	return append(lines, checkLines(checks, colorize)...)
}

func checkLines(checks []preflight.Result, colorize bool) []string {
	if len(checks) == 0 {
		return nil
	}
	lines := []string{""}
	lines = append(lines, renderSectionHeader("Folders", colorize)...)
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}
