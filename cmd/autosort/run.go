package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autosort/internal/daemon"
	"autosort/internal/ipc"
	"autosort/internal/logging"
	"autosort/internal/preflight"
	"autosort/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the autosort daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx, !noWatch)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Serve IPC without starting to watch the folder")
	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext, watch bool) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTargets(cfg, time.Now())...)
	for _, check := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "folder check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open state store", logging.Error(err))
		return err
	}
	defer st.Close()

	d, err := daemon.New(signalCtx, cfg, ctx.configPath, st, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if watch {
		if err := d.Start(signalCtx); err != nil {
			logging.WarnWithContext(logger, "watching did not start", "daemon_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "create the watch folder or fix paths.watch_dir, then run `autosort start`"),
			)
		}
	}

	logger.Info("autosort daemon ready",
		logging.String("socket", ctx.socketPath()),
		logging.String("config", ctx.configPath),
	)
	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("autosort daemon shutting down")
	return nil
}
