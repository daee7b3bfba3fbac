// Package service provides business logic services for Kvitok.
package service

import "errors"

// ErrInternalError wraps infrastructure failures that should not leak
// their details to API clients. Domain validation failures use the
// sentinels in the domain package instead.
var ErrInternalError = errors.New("internal server error")
