// Package history keeps the bounded, newest-first log of completed moves and
// implements undo.
//
// Every mutation (add, undo, clear, limit change) is persisted before it
// becomes visible: the new record set is built, handed to the Persister, and
// only swapped in once the write succeeded. Readers take a shared lock and
// never observe a half-applied change.
package history
