// Package repository defines data access interfaces for kvitok.
package repository

import "errors"

// ErrNotFound indicates the requested record does not exist.
// Repository implementations translate their driver's "no rows" condition
// into this error; the service layer maps it onto domain errors.
var ErrNotFound = errors.New("record not found")
