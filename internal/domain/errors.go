package domain

import "errors"

var (
	ErrInvalidState      = errors.New("invalid transaction state")
	ErrMalformedPayload  = errors.New("malformed notification payload")
	ErrVersionConflict   = errors.New("payment version conflict")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrTransport         = errors.New("commerce platform transport error")
	ErrCancelled         = errors.New("reconciliation cancelled")
	ErrConflictExhausted = errors.New("concurrent modification retries exhausted")
)
