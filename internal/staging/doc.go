// Package staging holds files that matched a rule while their grace period
// runs, and moves them once it has elapsed.
//
// Store is the pending table: one entry per path, keyed by a generated id.
// Removing an entry from it is the single point of mutual exclusion between
// the periodic sweep, a manual move-now, and a cancellation, so a file is
// handed to the mover at most once. Scheduler performs the sweep and the
// manual move and forwards successful moves to a Recorder.
package staging
