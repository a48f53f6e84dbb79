// Package daemon coordinates the long-running services behind pageforged:
// the workflow manager, the queue store, and the single-instance lock.
package daemon
