// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	ErrUnknownController     = errors.New("unknown controller")
	ErrTransport             = errors.New("transport failure")
	ErrMultiPayload          = errors.New("controller sends one payload per command")
	ErrMissingTransport      = errors.New("transport client not configured")
)

// TransportError wraps a failed transport call. It matches ErrTransport and
// unwraps to the underlying cause.
type TransportError struct {
	Controller string
	Op         string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Controller, e.Op, e.Err)
}

// Unwrap returns the transport's own error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func transportError(controller, op string, err error) error {
	return &TransportError{Controller: controller, Op: op, Err: err}
}
