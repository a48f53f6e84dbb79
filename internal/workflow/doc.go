// Package workflow drives tasks through the pipeline. The manager polls the
// queue for eligible tasks, claims them under a lease, dispatches the matching
// stage executor inside a bounded worker pool, and applies the outcome through
// the retry policy. Publishing runs through a separate batch coordinator that
// verifies published pages and rolls back on verification failure.
package workflow
