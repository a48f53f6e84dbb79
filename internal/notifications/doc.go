// Package notifications pushes operator-facing events (failed tasks,
// completed publish batches, queue drained) to an ntfy topic. Without a
// configured topic every notification is a no-op.
package notifications
