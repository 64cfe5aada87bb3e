package rules_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"autosort/internal/rules"
)

func TestRuleJSONUsesTaggedConditions(t *testing.T) {
	rule := rules.Rule{
		ID:      "r1",
		Name:    "Screenshots",
		Enabled: true,
		Conditions: rules.Conditions{
			rules.Extension{"png"},
			rules.NameContains("screenshot"),
			rules.SizeLessThan(5_000_000),
		},
		DestinationFolder: "Images/Screenshots",
	}

	data, err := json.Marshal(rule)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": "r1",
		"name": "Screenshots",
		"enabled": true,
		"priority": 0,
		"conditions": [
			{"type": "Extension", "value": ["png"]},
			{"type": "NameContains", "value": "screenshot"},
			{"type": "SizeLessThan", "value": 5000000}
		],
		"destination_folder": "Images/Screenshots",
		"is_default": false
	}`, string(data))

	var decoded rules.Rule
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, rule, decoded)
}

func TestConditionsRejectUnknownType(t *testing.T) {
	var cs rules.Conditions
	err := json.Unmarshal([]byte(`[{"type":"ModifiedBefore","value":"2020-01-01"}]`), &cs)
	require.ErrorContains(t, err, "unknown condition type")
}

func TestConditionsRejectMistypedValue(t *testing.T) {
	var cs rules.Conditions
	err := json.Unmarshal([]byte(`[{"type":"SizeGreaterThan","value":"big"}]`), &cs)
	require.Error(t, err)
}

func TestCloneDetachesExtensionSlices(t *testing.T) {
	original := rules.Rule{Conditions: rules.Conditions{rules.Extension{"jpg"}}}
	clone := original.Clone()
	clone.Conditions[0].(rules.Extension)[0] = "png"
	require.Equal(t, rules.Extension{"jpg"}, original.Conditions[0])
}
