package staging

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autosort/internal/config"
	"autosort/internal/logging"
	"autosort/internal/mover"
	"autosort/internal/rules"
	"autosort/internal/services"
)

var imagesRule = rules.Rule{Name: "Images", DestinationFolder: "Images"}

func TestIsCandidate(t *testing.T) {
	cases := map[string]bool{
		"photo.jpg":             true,
		"/downloads/report.pdf": true,
		".DS_Store":             false,
		".hidden.pdf":           false,
		"movie.mkv.part":        false,
		"setup.exe.CRDOWNLOAD":  false,
		"cache.tmp":             false,
		"thing.zip.download":    false,
		"partial":               true,
		"party.mp3":             true,
	}
	for name, want := range cases {
		require.Equal(t, want, IsCandidate(name), name)
	}
}

func TestStageIsIdempotentPerPath(t *testing.T) {
	s := NewStore()
	now := time.Now()

	first, added := s.Stage("/w/photo.jpg", imagesRule, 10, now, 5*time.Second)
	require.True(t, added)
	require.Equal(t, "photo.jpg", first.FileName)
	require.Equal(t, "Images", first.DestinationFolder)
	require.Equal(t, now.Add(5*time.Second), first.MoveAt)

	second, added := s.Stage("/w/./photo.jpg", imagesRule, 99, now.Add(time.Second), 5*time.Second)
	require.False(t, added)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, s.Len())
	require.True(t, s.Contains("/w/photo.jpg"))
}

func TestTakeDueHonoursDeadline(t *testing.T) {
	s := NewStore()
	now := time.Now()
	early, _ := s.Stage("/w/a.jpg", imagesRule, 1, now, time.Second)
	s.Stage("/w/b.jpg", imagesRule, 1, now, time.Minute)

	require.Empty(t, s.TakeDue(now.Add(500*time.Millisecond)))

	due := s.TakeDue(now.Add(time.Second))
	require.Len(t, due, 1)
	require.Equal(t, early.ID, due[0].ID)
	require.Equal(t, 1, s.Len())
}

func TestListOrdersByDueTime(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Stage("/w/late.jpg", imagesRule, 1, now, time.Minute)
	s.Stage("/w/soon.jpg", imagesRule, 1, now, time.Second)

	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, "soon.jpg", list[0].FileName)
}

func TestTakeHasSingleWinner(t *testing.T) {
	s := NewStore()
	pf, _ := s.Stage("/w/a.jpg", imagesRule, 1, time.Now(), 0)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Take(pf.ID); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())
	require.Zero(t, s.Len())
}

func TestForgetDropsPath(t *testing.T) {
	s := NewStore()
	s.Stage("/w/a.jpg", imagesRule, 1, time.Now(), time.Hour)
	_, ok := s.Forget("/w/a.jpg")
	require.True(t, ok)
	require.False(t, s.Contains("/w/a.jpg"))
	_, ok = s.Forget("/w/a.jpg")
	require.False(t, ok)
}

type fakeMover struct {
	mu    sync.Mutex
	calls []string
	fn    func(source string) mover.Outcome
}

func (f *fakeMover) Move(source, destRoot, folder string, policy config.ConflictResolution) mover.Outcome {
	f.mu.Lock()
	f.calls = append(f.calls, source)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(source)
	}
	return mover.Outcome{Status: mover.StatusMoved, Source: source, FinalPath: filepath.Join(destRoot, folder, filepath.Base(source))}
}

type fakeRecorder struct {
	mu    sync.Mutex
	moves []PendingFile
}

func (r *fakeRecorder) RecordMove(_ context.Context, pf PendingFile, _ mover.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, pf)
	return nil
}

func newTestScheduler(t *testing.T, mv Mover, rec Recorder) (*Scheduler, *Store, string) {
	t.Helper()
	dir := t.TempDir()
	pending := NewStore()
	settings := func() Settings { return Settings{DestinationRoot: filepath.Join(dir, "sorted"), Policy: config.ConflictRename} }
	return NewScheduler(pending, mv, rec, settings, logging.NewNop()), pending, dir
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestSweepMovesDueFilesAndRecords(t *testing.T) {
	mv := &fakeMover{}
	rec := &fakeRecorder{}
	sched, pending, dir := newTestScheduler(t, mv, rec)
	now := time.Now()
	sched.now = func() time.Time { return now }

	due := filepath.Join(dir, "due.jpg")
	later := filepath.Join(dir, "later.jpg")
	touch(t, due)
	touch(t, later)
	pending.Stage(due, imagesRule, 1, now.Add(-time.Second), time.Second)
	pending.Stage(later, imagesRule, 1, now, time.Hour)

	result := sched.Sweep(context.Background())
	require.Equal(t, SweepResult{Moved: 1}, result)
	require.Equal(t, []string{due}, mv.calls)
	require.Len(t, rec.moves, 1)
	require.True(t, pending.Contains(later))
	require.False(t, pending.Contains(due))
}

func TestSweepDropsVanishedAndFailedWithoutRetry(t *testing.T) {
	mv := &fakeMover{fn: func(source string) mover.Outcome {
		return mover.Outcome{Status: mover.StatusFailed, Source: source, Err: services.Wrap(services.ErrMoveFailed, "mover", "transfer", "", nil)}
	}}
	rec := &fakeRecorder{}
	sched, pending, dir := newTestScheduler(t, mv, rec)

	failing := filepath.Join(dir, "failing.jpg")
	touch(t, failing)
	pending.Stage(failing, imagesRule, 1, time.Now().Add(-time.Minute), 0)
	pending.Stage(filepath.Join(dir, "vanished.jpg"), imagesRule, 1, time.Now().Add(-time.Minute), 0)

	result := sched.Sweep(context.Background())
	require.Equal(t, 1, result.Failed)
	require.Equal(t, 1, result.Vanished)
	require.Equal(t, 2, result.Total())
	require.Zero(t, pending.Len(), "failed entries are not retried")
	require.Empty(t, rec.moves)
	require.Equal(t, []string{failing}, mv.calls)
}

func TestSweepCountsSkips(t *testing.T) {
	mv := &fakeMover{fn: func(source string) mover.Outcome {
		return mover.Outcome{Status: mover.StatusSkipped, Source: source}
	}}
	rec := &fakeRecorder{}
	sched, pending, dir := newTestScheduler(t, mv, rec)
	path := filepath.Join(dir, "a.jpg")
	touch(t, path)
	pending.Stage(path, imagesRule, 1, time.Now().Add(-time.Minute), 0)

	require.Equal(t, SweepResult{Skipped: 1}, sched.Sweep(context.Background()))
	require.Empty(t, rec.moves)
}

func TestSweepLeavesEntriesWhenCancelled(t *testing.T) {
	mv := &fakeMover{}
	sched, pending, dir := newTestScheduler(t, mv, nil)
	path := filepath.Join(dir, "a.jpg")
	touch(t, path)
	pending.Stage(path, imagesRule, 1, time.Now().Add(-time.Minute), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Zero(t, sched.Sweep(ctx).Total())
	require.True(t, pending.Contains(path))
	require.Empty(t, mv.calls)
}

func TestMoveNow(t *testing.T) {
	mv := &fakeMover{}
	rec := &fakeRecorder{}
	sched, pending, dir := newTestScheduler(t, mv, rec)

	_, err := sched.MoveNow(context.Background(), "missing-id")
	require.ErrorIs(t, err, services.ErrNotFound)

	path := filepath.Join(dir, "a.jpg")
	touch(t, path)
	pf, _ := pending.Stage(path, imagesRule, 1, time.Now(), time.Hour)

	outcome, err := sched.MoveNow(context.Background(), pf.ID)
	require.NoError(t, err)
	require.True(t, outcome.Moved())
	require.Zero(t, pending.Len())
	require.Len(t, rec.moves, 1)

	gone, _ := pending.Stage(filepath.Join(dir, "gone.jpg"), imagesRule, 1, time.Now(), time.Hour)
	outcome, err = sched.MoveNow(context.Background(), gone.ID)
	require.ErrorIs(t, err, services.ErrSourceMissing)
	require.Equal(t, mover.StatusFailed, outcome.Status)
}
