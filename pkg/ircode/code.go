// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import "time"

// Code is a pulse train. Pulses are signed microsecond durations, positive
// for mark and negative for space. Frequency is the carrier in Hz, 0 when the
// source encoding does not carry one. Repeat is the transmitter repeat count
// kept for Broadlink packets.
type Code struct {
	Frequency float64
	Pulses    []int
	Repeat    int
}

// NewCode returns a Code with pulses normalized.
func NewCode(frequency float64, pulses []int) *Code {
	return &Code{Frequency: frequency, Pulses: Normalize(pulses)}
}

// Normalize merges adjacent durations of the same sign and drops zeros. A list
// with no negative values is read as alternating mark and space.
func Normalize(pulses []int) []int {
	alternating := true
	for _, p := range pulses {
		if p < 0 {
			alternating = false
			break
		}
	}

	out := make([]int, 0, len(pulses))
	mark := true
	for _, p := range pulses {
		if alternating {
			if p != 0 && !mark {
				p = -p
			}
			mark = !mark
		}
		if p == 0 {
			continue
		}
		if n := len(out); n > 0 && (out[n-1] > 0) == (p > 0) {
			out[n-1] += p
			continue
		}
		out = append(out, p)
	}
	return out
}

// Duration returns the total length of the train.
func (c *Code) Duration() time.Duration {
	var us int
	for _, p := range c.Pulses {
		if p < 0 {
			p = -p
		}
		us += p
	}
	return time.Duration(us) * time.Microsecond
}

// Marks returns the number of mark pulses.
func (c *Code) Marks() int {
	n := 0
	for _, p := range c.Pulses {
		if p > 0 {
			n++
		}
	}
	return n
}

// alternating returns the normalized train as unsigned durations starting
// with a mark. Leading silence carries no signal and is dropped.
func (c *Code) alternating() []int {
	pulses := Normalize(c.Pulses)
	for len(pulses) > 0 && pulses[0] < 0 {
		pulses = pulses[1:]
	}
	out := make([]int, len(pulses))
	for i, p := range pulses {
		if p < 0 {
			p = -p
		}
		out[i] = p
	}
	return out
}

// fromAlternating rebuilds signed pulses from unsigned mark-first durations.
func fromAlternating(durations []int) []int {
	out := make([]int, len(durations))
	for i, d := range durations {
		if i%2 == 1 {
			d = -d
		}
		out[i] = d
	}
	return out
}
