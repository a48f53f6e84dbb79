package queue

import "errors"

// ErrClaimLost indicates a guarded update found the task no longer owned by
// the caller. The losing side must treat the task as someone else's.
var ErrClaimLost = errors.New("task claim lost")
