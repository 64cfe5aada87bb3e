package staging

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"autosort/internal/rules"
)

// PendingFile is a file waiting out its grace period.
type PendingFile struct {
	ID                string    `json:"id"`
	Path              string    `json:"path"`
	FileName          string    `json:"file_name"`
	DestinationFolder string    `json:"destination_folder"`
	RuleName          string    `json:"rule_name"`
	AddedAt           time.Time `json:"added_at"`
	MoveAt            time.Time `json:"move_at"`
	FileSize          int64     `json:"file_size"`
}

// Store is the pending table. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]PendingFile
	byPath map[string]string
	newID  func() string
}

// NewStore returns an empty pending table.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]PendingFile),
		byPath: make(map[string]string),
		newID:  uuid.NewString,
	}
}

// Stage records path as matched by rule. The file becomes due at
// addedAt+grace. Staging a path that is already pending returns the existing
// entry and false.
func (s *Store) Stage(path string, rule rules.Rule, size int64, addedAt time.Time, grace time.Duration) (PendingFile, bool) {
	path = filepath.Clean(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byPath[path]; ok {
		return s.byID[id], false
	}
	pf := PendingFile{
		ID:                s.newID(),
		Path:              path,
		FileName:          filepath.Base(path),
		DestinationFolder: rule.DestinationFolder,
		RuleName:          rule.Name,
		AddedAt:           addedAt,
		MoveAt:            addedAt.Add(grace),
		FileSize:          size,
	}
	s.byID[pf.ID] = pf
	s.byPath[path] = pf.ID
	return pf, true
}

// List returns every pending file ordered by due time, then path.
func (s *Store) List() []PendingFile {
	s.mu.RLock()
	out := make([]PendingFile, 0, len(s.byID))
	for _, pf := range s.byID {
		out = append(out, pf)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b PendingFile) int {
		if c := a.MoveAt.Compare(b.MoveAt); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Contains reports whether path is pending.
func (s *Store) Contains(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPath[filepath.Clean(path)]
	return ok
}

// Len returns the number of pending files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Take removes and returns the entry with id. Only one caller can take a
// given entry.
func (s *Store) Take(id string) (PendingFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pf, ok := s.byID[id]
	if !ok {
		return PendingFile{}, false
	}
	s.removeLocked(pf)
	return pf, true
}

// TakeDue removes and returns every entry whose MoveAt is not after now,
// ordered by due time.
func (s *Store) TakeDue(now time.Time) []PendingFile {
	s.mu.Lock()
	var due []PendingFile
	for _, pf := range s.byID {
		if !pf.MoveAt.After(now) {
			due = append(due, pf)
		}
	}
	for _, pf := range due {
		s.removeLocked(pf)
	}
	s.mu.Unlock()

	slices.SortFunc(due, func(a, b PendingFile) int { return a.MoveAt.Compare(b.MoveAt) })
	return due
}

// Forget drops the entry for path, if any. Used when the file disappears
// from the watch folder before it is due.
func (s *Store) Forget(path string) (PendingFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byPath[filepath.Clean(path)]
	if !ok {
		return PendingFile{}, false
	}
	pf := s.byID[id]
	s.removeLocked(pf)
	return pf, true
}

func (s *Store) removeLocked(pf PendingFile) {
	delete(s.byID, pf.ID)
	delete(s.byPath, pf.Path)
}
