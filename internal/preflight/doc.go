// Package preflight checks the folders autosort depends on before and
// while it runs.
//
// The run command logs failed checks at startup so a misconfigured watch
// folder shows up in the daemon log, and "autosort status" renders the
// same results whether or not the daemon is reachable.
package preflight
