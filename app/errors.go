package app

import "errors"

// ErrInternal wraps a recovered panic from an engine call.
var ErrInternal = errors.New("internal engine failure")
