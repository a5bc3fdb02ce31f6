package health

import "errors"

// ErrCheckTimeout wraps a check error when the readiness deadline expired.
var ErrCheckTimeout = errors.New("health: check timeout")
