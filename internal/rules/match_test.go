package rules_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"autosort/internal/rules"
)

func TestDefaultRulesRouteByExtension(t *testing.T) {
	defaults := rules.DefaultRules()

	rule, ok := rules.Match("photo.JPG", 2_000_000, defaults)
	require.True(t, ok)
	require.Equal(t, "Images", rule.Name)
	require.Equal(t, "Images", rule.DestinationFolder)

	dest, ok := rules.Test("setup.AppImage", defaults)
	require.True(t, ok)
	require.Equal(t, "Installers", dest)

	_, ok = rules.Match("notes.unknownext", 10, defaults)
	require.False(t, ok)

	_, ok = rules.Match("README", 10, defaults)
	require.False(t, ok, "a file without an extension matches no extension condition")
}

func TestMatchPrefersHighestPriority(t *testing.T) {
	list := []rules.Rule{
		{ID: "low", Name: "Docs", Enabled: true, Priority: 10, Conditions: rules.Conditions{rules.Extension{"pdf"}}, DestinationFolder: "Docs"},
		{ID: "high", Name: "Invoices", Enabled: true, Priority: 50, Conditions: rules.Conditions{
			rules.Extension{".PDF"},
			rules.NameContains("INVOICE"),
		}, DestinationFolder: "Finance/Invoices"},
	}

	rule, ok := rules.Match("march-invoice.pdf", 100, list)
	require.True(t, ok)
	require.Equal(t, "high", rule.ID)

	rule, ok = rules.Match("manual.pdf", 100, list)
	require.True(t, ok)
	require.Equal(t, "low", rule.ID)
}

func TestMatchExtremePriorities(t *testing.T) {
	list := []rules.Rule{
		{ID: "low", Enabled: true, Priority: math.MinInt + 5, Conditions: rules.Conditions{rules.Extension{"pdf"}}},
		{ID: "high", Enabled: true, Priority: 10, Conditions: rules.Conditions{rules.Extension{"pdf"}}},
		{ID: "max", Enabled: true, Priority: math.MaxInt, Conditions: rules.Conditions{rules.Extension{"txt"}}},
	}
	rule, ok := rules.Match("a.pdf", 0, list)
	require.True(t, ok)
	require.Equal(t, "high", rule.ID)

	sorted := rules.ByPriority(list)
	require.Equal(t, []string{"max", "high", "low"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestMatchRequiresExtension(t *testing.T) {
	list := []rules.Rule{
		{ID: "name", Enabled: true, Priority: 10, Conditions: rules.Conditions{rules.NameContains("readme")}},
		{ID: "regex", Enabled: true, Priority: 5, Conditions: rules.Conditions{rules.NameRegex(`.*`)}},
		{ID: "size", Enabled: true, Priority: 1, Conditions: rules.Conditions{rules.SizeLessThan(1 << 20)}},
	}
	_, ok := rules.Match("README", 10, list)
	require.False(t, ok)
	_, ok = rules.Match("archive.", 10, list)
	require.False(t, ok)

	rule, ok := rules.Match("README.md", 10, list)
	require.True(t, ok)
	require.Equal(t, "name", rule.ID)
}

func TestMatchTieKeepsListOrder(t *testing.T) {
	list := []rules.Rule{
		{ID: "first", Enabled: true, Priority: 5, Conditions: rules.Conditions{rules.Extension{"txt"}}},
		{ID: "second", Enabled: true, Priority: 5, Conditions: rules.Conditions{rules.Extension{"txt"}}},
	}
	rule, ok := rules.Match("a.txt", 0, list)
	require.True(t, ok)
	require.Equal(t, "first", rule.ID)
}

func TestMatchSkipsDisabledAndEmptyRules(t *testing.T) {
	list := []rules.Rule{
		{ID: "empty", Enabled: true, Priority: 100},
		{ID: "disabled", Enabled: false, Priority: 90, Conditions: rules.Conditions{rules.Extension{"zip"}}},
		{ID: "fallback", Enabled: true, Priority: 1, Conditions: rules.Conditions{rules.SizeGreaterThan(-1)}},
	}
	rule, ok := rules.Match("bundle.zip", 0, list)
	require.True(t, ok)
	require.Equal(t, "fallback", rule.ID)
}

func TestConditionSemantics(t *testing.T) {
	c := rules.NewCandidate("Straße-Report.tar.GZ", 1024)
	require.Equal(t, "gz", c.Ext)

	require.True(t, rules.Extension{"gz"}.Matches(c))
	require.True(t, rules.Extension{".GZ"}.Matches(c))
	require.False(t, rules.Extension{"tar"}.Matches(c))

	require.True(t, rules.NameContains("STRASSE").Matches(c), "case folding maps ß to ss")
	require.True(t, rules.NameContains("report").Matches(c))
	require.False(t, rules.NameContains("invoice").Matches(c))

	require.True(t, rules.NameRegex(`^Stra.*\.tar`).Matches(c))
	require.False(t, rules.NameRegex(`(unclosed`).Matches(c), "invalid pattern never matches")

	require.True(t, rules.SizeGreaterThan(1023).Matches(c))
	require.False(t, rules.SizeGreaterThan(1024).Matches(c))
	require.True(t, rules.SizeLessThan(1025).Matches(c))
	require.False(t, rules.SizeLessThan(1024).Matches(c))
}

func TestReorderAssignsDescendingPriorities(t *testing.T) {
	list := []rules.Rule{
		{ID: "a", Priority: 1},
		{ID: "b", Priority: 2},
		{ID: "c", Priority: 3},
		{ID: "untouched", Priority: 7},
	}
	out := rules.Reorder(list, []string{"c", "a", "missing", "b"})

	got := map[string]int{}
	for _, r := range out {
		got[r.ID] = r.Priority
	}
	require.Equal(t, map[string]int{"c": 40, "a": 30, "b": 10, "untouched": 7}, got)
	require.Equal(t, 1, list[0].Priority, "input must not be modified")
}

func TestByPriorityDoesNotMutateInput(t *testing.T) {
	list := []rules.Rule{{ID: "a", Priority: 1}, {ID: "b", Priority: 9}}
	sorted := rules.ByPriority(list)
	require.Equal(t, "b", sorted[0].ID)
	require.Equal(t, "a", list[0].ID)
}

func TestValidate(t *testing.T) {
	valid := rules.Rule{Name: "Big", DestinationFolder: "Large/Files", Conditions: rules.Conditions{rules.SizeGreaterThan(1 << 30)}}
	require.NoError(t, valid.Validate())

	cases := map[string]rules.Rule{
		"blank name":       {DestinationFolder: "x"},
		"absolute dest":    {Name: "n", DestinationFolder: "/etc"},
		"escaping dest":    {Name: "n", DestinationFolder: "../outside"},
		"dot dest":         {Name: "n", DestinationFolder: "."},
		"bad regex":        {Name: "n", DestinationFolder: "x", Conditions: rules.Conditions{rules.NameRegex("[")}},
		"empty extensions": {Name: "n", DestinationFolder: "x", Conditions: rules.Conditions{rules.Extension{}}},
	}
	for name, r := range cases {
		require.Error(t, r.Validate(), name)
	}
}
