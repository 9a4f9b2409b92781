// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrUnknownDevice    = errors.New("unknown device")
	ErrNoCommand        = errors.New("no command for state")
)

// UnsupportedValueError names the request field that failed validation.
type UnsupportedValueError struct {
	Field string
	Value string
}

// Error implements the error interface
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Field, e.Value)
}

// Unwrap returns ErrUnsupportedValue
func (e *UnsupportedValueError) Unwrap() error {
	return ErrUnsupportedValue
}

func unsupported(field, value string) error {
	return &UnsupportedValueError{Field: field, Value: value}
}

// lookup maps an enum value through a device code table.
func lookup(table map[string]byte, field, value string) (byte, error) {
	v, ok := table[value]
	if !ok {
		return 0, unsupported(field, value)
	}
	return v, nil
}
