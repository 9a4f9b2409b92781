// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"strconv"
	"strings"
)

// FormatRaw renders the normalized train as comma separated signed integers.
func FormatRaw(c *Code) (string, error) {
	pulses := Normalize(c.Pulses)
	if len(pulses) == 0 {
		return "", ErrEmpty
	}
	var sb strings.Builder
	for i, p := range pulses {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	return sb.String(), nil
}

// ParseRaw reads a duration list separated by commas or whitespace.
func ParseRaw(s string) (*Code, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, malformed(EncodingRaw, "no durations")
	}

	pulses := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, malformed(EncodingRaw, "duration %d %q is not an integer", i, f)
		}
		pulses[i] = v
	}

	pulses = Normalize(pulses)
	if len(pulses) == 0 {
		return nil, malformed(EncodingRaw, "all durations are zero")
	}
	return &Code{Pulses: pulses}, nil
}

// Ints returns the normalized train, the form ESPHome's transmit_raw takes.
func (c *Code) Ints() []int {
	return Normalize(c.Pulses)
}
