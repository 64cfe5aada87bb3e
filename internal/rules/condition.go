package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Kind names a condition variant. It is the "type" tag of the JSON form.
type Kind string

const (
	KindExtension       Kind = "Extension"
	KindNameContains    Kind = "NameContains"
	KindNameRegex       Kind = "NameRegex"
	KindSizeGreaterThan Kind = "SizeGreaterThan"
	KindSizeLessThan    Kind = "SizeLessThan"
)

// Candidate is the file a rule is evaluated against. Ext is lowercase with no
// leading dot; it is empty when the name has no extension.
type Candidate struct {
	Name string
	Ext  string
	Size int64
}

// Condition is one predicate of a rule. The set of implementations is closed.
type Condition interface {
	Kind() Kind
	Matches(Candidate) bool
	condition()
}

// Extension holds when the candidate's extension equals one of the listed
// extensions, ignoring case and a leading dot.
type Extension []string

// NameContains holds when the candidate's name contains the text under Unicode
// case folding.
type NameContains string

// NameRegex holds when the pattern matches somewhere in the candidate's name.
// A pattern that fails to compile never matches.
type NameRegex string

// SizeGreaterThan holds when the candidate is strictly larger than the bound.
type SizeGreaterThan int64

// SizeLessThan holds when the candidate is strictly smaller than the bound.
type SizeLessThan int64

func (Extension) Kind() Kind       { return KindExtension }
func (NameContains) Kind() Kind    { return KindNameContains }
func (NameRegex) Kind() Kind       { return KindNameRegex }
func (SizeGreaterThan) Kind() Kind { return KindSizeGreaterThan }
func (SizeLessThan) Kind() Kind    { return KindSizeLessThan }

func (Extension) condition()       {}
func (NameContains) condition()    {}
func (NameRegex) condition()       {}
func (SizeGreaterThan) condition() {}
func (SizeLessThan) condition()    {}

func (e Extension) Matches(c Candidate) bool {
	if c.Ext == "" {
		return false
	}
	for _, ext := range e {
		if NormalizeExtension(ext) == c.Ext {
			return true
		}
	}
	return false
}

func (n NameContains) Matches(c Candidate) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(c.Name), fold.String(string(n)))
}

func (r NameRegex) Matches(c Candidate) bool {
	re, err := compileRegex(string(r))
	if err != nil {
		return false
	}
	return re.MatchString(c.Name)
}

// compiled patterns, including failures, keyed by source text
var regexCache sync.Map

type regexEntry struct {
	re  *regexp.Regexp
	err error
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		entry := cached.(regexEntry)
		return entry.re, entry.err
	}
	re, err := regexp.Compile(pattern)
	regexCache.Store(pattern, regexEntry{re: re, err: err})
	return re, err
}

func (s SizeGreaterThan) Matches(c Candidate) bool { return c.Size > int64(s) }

func (s SizeLessThan) Matches(c Candidate) bool { return c.Size < int64(s) }

// NormalizeExtension lowercases ext and strips one leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ValidateCondition reports problems a user should fix before saving a rule.
func ValidateCondition(c Condition) error {
	switch v := c.(type) {
	case Extension:
		if len(v) == 0 {
			return fmt.Errorf("extension condition needs at least one extension")
		}
		for _, ext := range v {
			if NormalizeExtension(ext) == "" {
				return fmt.Errorf("extension condition has a blank entry")
			}
		}
	case NameContains:
		if v == "" {
			return fmt.Errorf("name-contains condition needs text")
		}
	case NameRegex:
		if _, err := compileRegex(string(v)); err != nil {
			return fmt.Errorf("name-regex condition: %w", err)
		}
	case SizeGreaterThan:
		if v < 0 {
			return fmt.Errorf("size-greater-than bound must not be negative")
		}
	case SizeLessThan:
		if v < 0 {
			return fmt.Errorf("size-less-than bound must not be negative")
		}
	case nil:
		return fmt.Errorf("nil condition")
	default:
		return fmt.Errorf("unsupported condition %T", c)
	}
	return nil
}

// Conditions is the ordered AND-list of a rule. It carries the tagged JSON form.
type Conditions []Condition

type wireCondition struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes each condition as {"type": ..., "value": ...}.
func (cs Conditions) MarshalJSON() ([]byte, error) {
	out := make([]wireCondition, 0, len(cs))
	for i, c := range cs {
		var value any
		switch v := c.(type) {
		case Extension:
			value = []string(v)
		case NameContains:
			value = string(v)
		case NameRegex:
			value = string(v)
		case SizeGreaterThan:
			value = int64(v)
		case SizeLessThan:
			value = int64(v)
		default:
			return nil, fmt.Errorf("condition %d: unsupported type %T", i, c)
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, wireCondition{Type: c.Kind(), Value: raw})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged form, rejecting unknown kinds.
func (cs *Conditions) UnmarshalJSON(data []byte) error {
	var wire []wireCondition
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	decoded := make(Conditions, 0, len(wire))
	for i, w := range wire {
		c, err := decodeCondition(w)
		if err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		decoded = append(decoded, c)
	}
	*cs = decoded
	return nil
}

func decodeCondition(w wireCondition) (Condition, error) {
	switch w.Type {
	case KindExtension:
		var v []string
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, fmt.Errorf("%s value: %w", w.Type, err)
		}
		return Extension(v), nil
	case KindNameContains:
		var v string
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, fmt.Errorf("%s value: %w", w.Type, err)
		}
		return NameContains(v), nil
	case KindNameRegex:
		var v string
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, fmt.Errorf("%s value: %w", w.Type, err)
		}
		return NameRegex(v), nil
	case KindSizeGreaterThan:
		var v int64
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, fmt.Errorf("%s value: %w", w.Type, err)
		}
		return SizeGreaterThan(v), nil
	case KindSizeLessThan:
		var v int64
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, fmt.Errorf("%s value: %w", w.Type, err)
		}
		return SizeLessThan(v), nil
	}
	return nil, fmt.Errorf("unknown condition type %q", w.Type)
}
