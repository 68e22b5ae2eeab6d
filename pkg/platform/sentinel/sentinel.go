// Package sentinel holds the errors infrastructure code returns for facts a
// service must branch on. Services turn them into pkg/domain-errors codes.
package sentinel

import "errors"

var (
	// ErrNotFound: no such key, row or active record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: a state machine was asked for a transition it does not allow.
	ErrInvalidState = errors.New("invalid state")
)
