// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoVaults     = errors.New("no vaults configured")
	ErrVaultUnknown = errors.New("unknown vault")
	ErrBadInput     = errors.New("invalid input")
)
