// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
//
// Repositories return it when the store is unreachable or fails in an unexpected way.
var ErrInternal = errors.New("internal")
