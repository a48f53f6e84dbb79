// Package queue persists pipeline tasks and their lifecycle state in SQLite.
//
// The store is the single source of truth for task status. All claim and
// release operations are guarded compare-and-update statements so that at most
// one scheduler dispatch can own a task at a time, regardless of how many
// workers race for it. Every status transition is appended to a per-task audit
// log in the same transaction as the mutation.
package queue
