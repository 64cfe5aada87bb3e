package rules

import (
	"cmp"
	"path/filepath"
	"slices"
)

// NewCandidate derives the extension from name.
func NewCandidate(name string, size int64) Candidate {
	return Candidate{
		Name: name,
		Ext:  NormalizeExtension(filepath.Ext(name)),
		Size: size,
	}
}

// Matches reports whether every condition holds. A rule with no conditions
// never matches, and disabled rules never match.
func (r Rule) Matches(c Candidate) bool {
	if !r.Enabled || len(r.Conditions) == 0 {
		return false
	}
	for _, cond := range r.Conditions {
		if !cond.Matches(c) {
			return false
		}
	}
	return true
}

// Match returns the enabled rule with the highest priority whose conditions
// all hold for the named file. Rules with equal priority are tried in list
// order. A name without an extension matches nothing.
func Match(name string, size int64, list []Rule) (Rule, bool) {
	candidate := NewCandidate(name, size)
	if candidate.Ext == "" {
		return Rule{}, false
	}
	for _, r := range ByPriority(list) {
		if r.Matches(candidate) {
			return r, true
		}
	}
	return Rule{}, false
}

// MatchPath is Match for a full path; only the base name is evaluated.
func MatchPath(path string, size int64, list []Rule) (Rule, bool) {
	return Match(filepath.Base(path), size, list)
}

// ByPriority returns the rules sorted by descending priority, keeping list
// order among equals. The input slice is not modified.
func ByPriority(list []Rule) []Rule {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return sorted
}

// Test is a dry run: it reports the destination folder a file with this name
// would be sent to, treating its size as zero.
func Test(name string, list []Rule) (string, bool) {
	r, ok := Match(name, 0, list)
	if !ok {
		return "", false
	}
	return r.DestinationFolder, true
}

// Reorder assigns priorities so that ids[0] ranks highest. The rule at index i
// of ids receives priority (len(ids)-i)*10. Rules not named in ids keep their
// priority, and ids that name no rule are ignored.
func Reorder(list []Rule, ids []string) []Rule {
	out := CloneAll(list)
	index := make(map[string]int, len(out))
	for i, r := range out {
		index[r.ID] = i
	}
	for pos, id := range ids {
		if i, ok := index[id]; ok {
			out[i].Priority = (len(ids) - pos) * 10
		}
	}
	return out
}
