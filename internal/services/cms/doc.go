// Package cms talks to the publishing target's content API. All failures are
// tagged with the services taxonomy at this boundary so the scheduler never
// sees an unclassified publish error.
package cms
