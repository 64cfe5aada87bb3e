package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autosort/internal/config"
	"autosort/internal/daemon"
	"autosort/internal/logging"
	"autosort/internal/rules"
	"autosort/internal/services"
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

func openQuiet(string) (watch.Source, error) {
	return quietSource{events: make(chan watch.Event), errs: make(chan error)}, nil
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	cfgPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	d, err := daemon.New(context.Background(), cfg, cfgPath, st, logging.NewNop(),
		daemon.WithWorkflowOptions(workflow.WithSourceOpener(openQuiet)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonSeedsDefaultRules(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	list := d.Rules()
	require.Len(t, list, 7)
	for _, r := range list {
		require.True(t, r.IsDefault)
	}
	require.Equal(t, 7, d.Status().Rules)
}

func TestDaemonRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	newDaemon(t, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	_, err := daemon.New(context.Background(), cfg, "", st, logging.NewNop())
	require.ErrorIs(t, err, services.ErrAlreadyRunning)
}

func TestDaemonMoveUndoCycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.WatchDir, "report.pdf")
	testsupport.WriteFile(t, src, 128)

	d := newDaemon(t, cfg)
	require.NoError(t, d.Start(context.Background()))

	testsupport.WaitFor(t, "move recorded", func() bool { return len(d.History()) == 1 })
	rec := d.History()[0]
	require.Equal(t, src, rec.OriginalPath)
	require.Equal(t, filepath.Join(cfg.Paths.DestinationRoot, "Documents", "report.pdf"), rec.NewPath)
	require.Equal(t, "Documents", rec.RuleName)
	require.Equal(t, int64(128), rec.FileSize)
	require.True(t, rec.CanUndo)

	stats, err := d.HistoryStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
	require.Equal(t, 1, stats.Today)
	require.Equal(t, 1, stats.ThisWeek)

	undone, err := d.Undo(context.Background(), rec.ID)
	require.NoError(t, err)
	require.False(t, undone.CanUndo)
	require.FileExists(t, src)
	require.NoFileExists(t, rec.NewPath)

	_, err = d.Undo(context.Background(), rec.ID)
	require.ErrorIs(t, err, services.ErrAlreadyUndone)

	// the restored file stays put
	staged, err := d.Rescan(context.Background())
	require.NoError(t, err)
	require.Empty(t, staged)
	time.Sleep(100 * time.Millisecond)
	require.FileExists(t, src)

	removed, err := d.ClearHistory(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Empty(t, d.History())
	stats, err = d.HistoryStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
}

func TestDaemonUndoFailsWhenOriginalOccupied(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.WatchDir, "song.mp3")
	testsupport.WriteFile(t, src, 16)

	d := newDaemon(t, cfg)
	require.NoError(t, d.Start(context.Background()))
	testsupport.WaitFor(t, "move recorded", func() bool { return len(d.History()) == 1 })
	d.Stop()

	testsupport.WriteFile(t, src, 4)
	staged, err := d.Rescan(context.Background())
	require.NoError(t, err)
	require.Len(t, staged, 1)

	rec := d.History()[0]
	_, err = d.Undo(context.Background(), rec.ID)
	require.ErrorIs(t, err, services.ErrDestinationOccupied)
	require.True(t, d.History()[0].CanUndo)
	require.FileExists(t, rec.NewPath)

	pending := d.Pending()
	require.Len(t, pending, 1, "a failed undo leaves the newly downloaded file staged")
	require.Equal(t, staged[0].ID, pending[0].ID)

	_, err = d.Undo(context.Background(), "missing")
	require.ErrorIs(t, err, services.ErrRecordNotFound)
}

func TestDaemonRuleEditing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx := context.Background()

	_, err := d.AddRule(ctx, rules.Rule{Name: "Escape", DestinationFolder: "../out"})
	require.ErrorIs(t, err, services.ErrConfiguration)

	added, err := d.AddRule(ctx, rules.Rule{
		Name:              " Invoices ",
		Enabled:           true,
		Priority:          200,
		Conditions:        rules.Conditions{rules.NameContains("invoice")},
		DestinationFolder: "Finance",
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	require.Equal(t, "Invoices", added.Name)
	require.False(t, added.IsDefault)

	dest, ok := d.TestRule("Invoice-March.pdf", nil)
	require.True(t, ok)
	require.Equal(t, "Finance", dest)

	added.DestinationFolder = "Finance/Invoices"
	_, err = d.UpdateRule(ctx, added)
	require.NoError(t, err)
	dest, ok = d.TestRule("invoice.pdf", nil)
	require.True(t, ok)
	require.Equal(t, "Finance/Invoices", dest)

	_, err = d.UpdateRule(ctx, rules.Rule{ID: "nope", Name: "x", DestinationFolder: "x"})
	require.ErrorIs(t, err, services.ErrNotFound)

	list := d.Rules()
	var docsID string
	for _, r := range list {
		if r.Name == "Documents" {
			docsID = r.ID
		}
	}
	reordered, err := d.ReorderRules(ctx, []string{docsID, added.ID})
	require.NoError(t, err)
	for _, r := range reordered {
		switch r.ID {
		case docsID:
			require.Equal(t, 20, r.Priority)
		case added.ID:
			require.Equal(t, 10, r.Priority)
		}
	}
	dest, ok = d.TestRule("invoice.pdf", nil)
	require.True(t, ok)
	require.Equal(t, "Documents", dest)

	require.NoError(t, d.DeleteRule(ctx, added.ID))
	require.ErrorIs(t, d.DeleteRule(ctx, added.ID), services.ErrNotFound)
	require.Len(t, d.Rules(), 7)

	_, ok = d.TestRule("notes.txt", []rules.Rule{{Name: "Only", Enabled: true, Conditions: rules.Conditions{rules.Extension{"md"}}, DestinationFolder: "Md"}})
	require.False(t, ok)
}

func TestDaemonSaveConfigHotApplies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	next := d.Config()
	next.Sorting.GracePeriodSeconds = 30
	next.Sorting.ConflictResolution = config.ConflictSkip
	next.Sorting.HistoryLimit = 10
	saved, err := d.SaveConfig(context.Background(), next)
	require.NoError(t, err)
	require.Equal(t, 30, saved.Sorting.GracePeriodSeconds)
	require.Equal(t, config.ConflictSkip, d.Config().Sorting.ConflictResolution)

	_, err = os.Stat(d.ConfigPath())
	require.NoError(t, err)
	loaded, _, exists, err := config.Load(d.ConfigPath())
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 10, loaded.Sorting.HistoryLimit)

	bad := d.Config()
	bad.Sorting.GracePeriodSeconds = -1
	_, err = d.SaveConfig(context.Background(), bad)
	require.ErrorIs(t, err, services.ErrConfiguration)
	require.Equal(t, 30, d.Config().Sorting.GracePeriodSeconds)
}

func TestDaemonShutdownRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	select {
	case <-d.ShutdownRequested():
		t.Fatal("shutdown requested before asking")
	default:
	}
	d.RequestShutdown()
	d.RequestShutdown()
	select {
	case <-d.ShutdownRequested():
	case <-time.After(time.Second):
		t.Fatal("shutdown channel not closed")
	}
}
