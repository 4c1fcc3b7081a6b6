// Package common holds the error taxonomy shared across domain packages.
package common

import "errors"

var (
	// ErrEmptyFile is returned when an upload is missing or has no content.
	ErrEmptyFile = errors.New("file is empty or missing")

	// ErrUserNotFound is returned when an identity cannot be resolved to a
	// stored user. The import path never creates users.
	ErrUserNotFound = errors.New("user not found")

	// ErrTransactionNotFound is returned when a transaction id does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidInput is returned for malformed request parameters, such as
	// an empty category on a correction.
	ErrInvalidInput = errors.New("invalid input")
)
