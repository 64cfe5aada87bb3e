// Package rules models sorting rules and decides which rule, if any, claims a
// file.
//
// A Rule is an ordered set of Conditions joined by AND plus a destination
// folder relative to the destination root. Conditions are a closed family
// (Extension, NameContains, NameRegex, SizeGreaterThan, SizeLessThan); every
// switch over them is exhaustive and the JSON form tags each with its kind:
//
//	{"type":"Extension","value":["jpg","png"]}
//
// Match picks the highest-priority enabled rule whose conditions all hold.
// Rules with no conditions never match.
package rules
