package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Rule routes matching files to DestinationFolder under the destination root.
type Rule struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Enabled           bool       `json:"enabled"`
	Priority          int        `json:"priority"`
	Conditions        Conditions `json:"conditions"`
	DestinationFolder string     `json:"destination_folder"`
	IsDefault         bool       `json:"is_default"`
}

// Validate rejects rules that could never be saved sensibly: blank names,
// destinations that escape the destination root, and malformed conditions.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name must be set")
	}
	if err := ValidateDestination(r.DestinationFolder); err != nil {
		return err
	}
	for i, c := range r.Conditions {
		if err := ValidateCondition(c); err != nil {
			return fmt.Errorf("condition %d: %w", i+1, err)
		}
	}
	return nil
}

// ValidateDestination requires a non-empty relative folder that stays inside
// the destination root.
func ValidateDestination(folder string) error {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return errors.New("destination folder must be set")
	}
	if filepath.IsAbs(folder) {
		return fmt.Errorf("destination folder %q must be relative to the destination root", folder)
	}
	cleaned := filepath.Clean(folder)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("destination folder %q must stay inside the destination root", folder)
	}
	return nil
}

// Clone returns a copy that shares no slices with r.
func (r Rule) Clone() Rule {
	out := r
	out.Conditions = make(Conditions, len(r.Conditions))
	for i, c := range r.Conditions {
		if ext, ok := c.(Extension); ok {
			c = append(Extension(nil), ext...)
		}
		out.Conditions[i] = c
	}
	return out
}

// CloneAll copies a rule list.
func CloneAll(list []Rule) []Rule {
	out := make([]Rule, len(list))
	for i, r := range list {
		out[i] = r.Clone()
	}
	return out
}
