// Package workflow runs the watch-stage-move pipeline for one folder.
//
// The Manager owns the event subscription, the pending table, and the
// scheduler. While running it drives two goroutines: an event loop that
// filters new files, matches them against the rules, and stages them; and a
// sweep loop that moves staged files once their grace period has elapsed.
// Pausing keeps both loops alive but discards events and suspends sweeps;
// files that arrive while paused are picked up only by a rescan.
//
// Configuration and rules are snapshots swapped atomically by UpdateConfig and
// UpdateRules, so changes apply to the next event or sweep without a restart.
// Changing the watch folder while running restarts the subscription.
package workflow
