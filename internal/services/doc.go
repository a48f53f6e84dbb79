// Package services defines the failure taxonomy shared by stage executors and
// the scheduler, plus context carriers for standardized log fields. Executors
// must tag every failure retriable or fatal at the boundary; unclassified
// errors never reach the retry policy.
package services
