package watch

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"autosort/internal/services"
)

// Op is a set of filesystem changes.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Has reports whether o includes all bits of other.
func (o Op) Has(other Op) bool { return o&other == other }

func (o Op) String() string {
	names := []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}}
	out := ""
	for _, n := range names {
		if o.Has(n.op) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// Event is one change to a path inside the watched folder.
type Event struct {
	Path string
	Op   Op
}

// Source delivers events until Close is called. Both channels are closed
// after Close returns.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// Opener starts watching dir.
type Opener func(dir string) (Source, error)

// ValidateDir checks that dir exists and is a directory.
func ValidateDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return services.Wrap(services.ErrWatchSetup, "watch", "validate", dir, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrWatchSetup, "watch", "validate", dir+" is not a directory", nil)
	}
	return nil
}

type fsSource struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// OpenFSNotify watches dir (non-recursively) with fsnotify.
func OpenFSNotify(dir string) (Source, error) {
	if err := ValidateDir(dir); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, services.Wrap(services.ErrWatchSetup, "watch", "create watcher", "", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, services.Wrap(services.ErrWatchSetup, "watch", "add", dir, err)
	}

	s := &fsSource{
		watcher: w,
		events:  make(chan Event, 64),
		errors:  make(chan error, 8),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.forward()
	return s, nil
}

func (s *fsSource) Events() <-chan Event { return s.events }

func (s *fsSource) Errors() <-chan error { return s.errors }

func (s *fsSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		s.wg.Wait()
		close(s.events)
		close(s.errors)
	})
	return err
}

func (s *fsSource) forward() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			op := translateOp(ev.Op)
			if op == 0 {
				continue
			}
			select {
			case s.events <- Event{Path: ev.Name, Op: op}:
			case <-s.done:
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				err = fmt.Errorf("%w: some events were dropped", err)
			}
			select {
			case s.errors <- err:
			case <-s.done:
				return
			}
		}
	}
}

func translateOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	return out
}
