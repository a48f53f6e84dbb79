// Package preflight runs environment checks before the daemon starts
// processing: directory access, free disk space, and service configuration.
// Results are informational; the caller decides whether a failure is fatal.
package preflight
