// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrMalformed           = errors.New("malformed code")
	ErrUnknownProtocol     = errors.New("unknown protocol")
	ErrInvalidParams       = errors.New("invalid protocol parameters")
	ErrEmpty               = errors.New("empty code")
)

// MalformedError describes why a text could not be decoded.
type MalformedError struct {
	Encoding string
	Reason   string
}

// Error implements the error interface
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s code: %s", e.Encoding, e.Reason)
}

// Unwrap returns ErrMalformed
func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

func malformed(enc, format string, args ...interface{}) error {
	return &MalformedError{Encoding: enc, Reason: fmt.Sprintf(format, args...)}
}
