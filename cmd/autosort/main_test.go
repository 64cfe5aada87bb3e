package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autosort/internal/config"
	"autosort/internal/daemon"
	"autosort/internal/ipc"
	"autosort/internal/logging"
	"autosort/internal/testsupport"
	"autosort/internal/watch"
	"autosort/internal/workflow"
)

type quietSource struct {
	events chan watch.Event
	errs   chan error
}

func (q quietSource) Events() <-chan watch.Event { return q.events }
func (q quietSource) Errors() <-chan error       { return q.errs }
func (q quietSource) Close() error               { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	require.NoError(t, config.Save(configPath, cfg))

	store := testsupport.MustOpenStore(t, cfg)
	open := func(string) (watch.Source, error) {
		return quietSource{events: make(chan watch.Event), errs: make(chan error)}, nil
	}
	d, err := daemon.New(context.Background(), cfg, configPath, store, logging.NewNop(),
		daemon.WithWorkflowOptions(workflow.WithSourceOpener(open)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	require.NoError(t, err)
	srv.Serve()
	t.Cleanup(srv.Close)

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		socketPath: cfg.SocketPath(),
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) run(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args, e.socketPath, e.configPath)
	require.NoError(t, err, "autosort %s: %s", strings.Join(args, " "), stderr)
	return out
}

func TestCLIStatusAndLifecycle(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutStartupScan())

	out := env.run(t, "status")
	require.Contains(t, out, "running (pid")
	require.Contains(t, out, "stopped")
	require.Contains(t, out, "Folders")
	require.Contains(t, out, "read/write ok")

	require.NoError(t, env.daemon.Start(context.Background()))
	out = env.run(t, "pause")
	require.Contains(t, out, "Watching paused")
	out = env.run(t, "status")
	require.Contains(t, out, "paused")

	env.run(t, "resume")
	out = env.run(t, "status", "--json")
	require.Contains(t, out, `"daemon_running": true`)

	out = env.run(t, "stop")
	require.Contains(t, out, "Watching stopped")
	require.False(t, env.daemon.Status().Workflow.Running)
}

func TestCLIStatusWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	require.NoError(t, config.Save(configPath, cfg))

	out, _, err := runCLI(t, []string{"status"}, cfg.SocketPath(), configPath)
	require.NoError(t, err)
	require.Contains(t, out, "not running")
	require.Contains(t, out, "Watch folder")

	_, _, err = runCLI(t, []string{"pending", "list"}, cfg.SocketPath(), configPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nothing is listening")
}

func TestCLIPendingFlow(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGracePeriod(300))
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.WatchDir, "holiday.jpeg"), 2048)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.WatchDir, "setup.msi"), 10)

	out := env.run(t, "scan")
	require.Contains(t, out, "holiday.jpeg")
	require.Contains(t, out, "setup.msi")

	out = env.run(t, "scan")
	require.Contains(t, out, "Nothing new to stage")

	var jpegID, msiID string
	for _, pf := range env.daemon.Pending() {
		switch pf.FileName {
		case "holiday.jpeg":
			jpegID = pf.ID
		case "setup.msi":
			msiID = pf.ID
		}
	}

	out = env.run(t, "pending", "cancel", msiID[:8])
	require.Contains(t, out, "Cancelled setup.msi")

	out = env.run(t, "pending", "move", jpegID)
	require.Contains(t, out, filepath.Join(env.cfg.Paths.DestinationRoot, "Images", "holiday.jpeg"))

	out = env.run(t, "pending", "list")
	require.Contains(t, out, "No files pending")
}

func TestCLIHistoryFlow(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGracePeriod(300))
	src := filepath.Join(env.cfg.Paths.WatchDir, "song.flac")
	testsupport.WriteFile(t, src, 10)
	staged, err := env.daemon.Rescan(context.Background())
	require.NoError(t, err)
	_, err = env.daemon.MoveNow(context.Background(), staged[0].ID)
	require.NoError(t, err)

	out := env.run(t, "history", "list")
	require.Contains(t, out, "Audio")
	require.Contains(t, out, "yes")

	out = env.run(t, "history", "stats")
	require.Contains(t, out, "All time")

	rec := env.daemon.History()[0]
	out = env.run(t, "history", "undo", rec.ID[:6])
	require.Contains(t, out, "Restored "+src)
	require.FileExists(t, src)

	_, _, err = runCLI(t, []string{"history", "undo", rec.ID}, env.socketPath, env.configPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already undone")

	out = env.run(t, "history", "clear")
	require.Contains(t, out, "Cleared 1 record(s)")
}

func TestCLIRulesFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.run(t, "rules", "list")
	require.Contains(t, out, "Images")
	require.Contains(t, out, "ext jpg")

	out = env.run(t, "rules", "add", "--name", "Screenshots", "--dest", "Images/Screens",
		"--contains", "screenshot", "--ext", "png", "--priority", "150")
	require.Contains(t, out, `Added rule "Screenshots"`)

	out = env.run(t, "rules", "test", "Screenshot 2024-01-01.png")
	require.Contains(t, out, "-> Images/Screens")
	out = env.run(t, "rules", "test", "cat.png")
	require.Contains(t, out, "-> Images")
	require.NotContains(t, out, "Screens")

	env.run(t, "rules", "update", "Screenshots", "--larger-than", "1MB")
	out = env.run(t, "rules", "list")
	require.Contains(t, out, "> 977 KiB")

	env.run(t, "rules", "update", "screenshots", "--disabled")
	out = env.run(t, "rules", "test", "Screenshot.png")
	require.Contains(t, out, "-> Images\n")

	out = env.run(t, "rules", "reorder", "Code", "Images")
	require.Contains(t, out, "Code")

	out = env.run(t, "rules", "delete", "Screenshots")
	require.Contains(t, out, `Deleted rule "Screenshots"`)
	require.Len(t, env.daemon.Rules(), 7)

	_, _, err := runCLI(t, []string{"rules", "add", "--name", "Bad", "--dest", "/abs"}, env.socketPath, env.configPath)
	require.Error(t, err)

	out = env.run(t, "rules", "test", "mystery.xyz")
	require.Contains(t, out, "no rule matches")
}

func TestCLIConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.run(t, "config", "path")
	require.Equal(t, env.configPath+"\n", out)

	out = env.run(t, "config", "show")
	require.Contains(t, out, "(daemon)")
	require.Contains(t, out, "watch_dir")
	require.Contains(t, out, env.cfg.Paths.WatchDir)

	target := filepath.Join(t.TempDir(), "nested", "autosort.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote sample configuration")
	require.FileExists(t, target)
	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	require.Error(t, err)

	edited := *env.cfg
	edited.Sorting.GracePeriodSeconds = 77
	require.NoError(t, config.Save(env.configPath, &edited))
	out = env.run(t, "config", "reload")
	require.Contains(t, out, "Applied configuration")
	require.Equal(t, 77, env.daemon.Config().Sorting.GracePeriodSeconds)
}

func TestCLILogs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	require.NoError(t, config.Save(configPath, cfg))

	out, _, err := runCLI(t, []string{"logs"}, cfg.SocketPath(), configPath)
	require.NoError(t, err)
	require.Contains(t, out, "No logs in")

	require.NoError(t, os.MkdirAll(cfg.Paths.LogDir, 0o755))
	logPath := filepath.Join(cfg.Paths.LogDir, "autosort-2026-01-02.log")
	require.NoError(t, os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644))

	out, _, err = runCLI(t, []string{"logs", "-n", "2"}, cfg.SocketPath(), configPath)
	require.NoError(t, err)
	require.Equal(t, "second\nthird\n", out)
}

func TestResolveID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}

	id, err := resolveID("rule", "abc", ids)
	require.NoError(t, err)
	require.Equal(t, "abc123", id)

	id, err = resolveID("rule", "xyz", ids)
	require.NoError(t, err)
	require.Equal(t, "xyz", id)

	_, err = resolveID("rule", "ab", ids)
	require.ErrorContains(t, err, "ambiguous")

	_, err = resolveID("rule", "q", ids)
	require.ErrorContains(t, err, "no rule matches")

	_, err = resolveID("rule", " ", ids)
	require.Error(t, err)
}

func TestMain(m *testing.M) {
	// keep env overrides from the developer's shell out of config loading
	os.Unsetenv("AUTOSORT_WATCH_DIR")
	os.Unsetenv("AUTOSORT_DESTINATION_ROOT")
	os.Exit(m.Run())
}
