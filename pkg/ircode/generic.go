// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"fmt"

	"github.com/Thermoquad/smartir/pkg/climate"
)

// FromGeneric expands an encoder's frames into a pulse train.
//
// Each repetition starts with the optional burst preamble, followed by every
// frame in order: header mark and space, one mark plus a short or long space
// per bit, a stop mark and the trailing gap. The first "cm" bytes of a frame
// are each followed by their complement and a checksum byte is appended when
// "ck" is set.
func FromGeneric(cmd climate.GenericCommand) (*Code, error) {
	var msbFirst bool
	switch cmd.Protocol {
	case ProtocolNEC:
	case ProtocolNECB:
		msbFirst = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, cmd.Protocol)
	}
	if len(cmd.Frames) == 0 {
		return nil, fmt.Errorf("%w: command has no frames", ErrEmpty)
	}

	params, err := ParseParams(cmd.Params)
	if err != nil {
		return nil, err
	}
	t, err := resolveTiming(params)
	if err != nil {
		return nil, err
	}

	var train []int
	for r := 0; r < t.repeat; r++ {
		for i := 0; i < t.bursts; i++ {
			space := t.burstSpace
			if i == t.bursts-1 {
				space = t.gap
			}
			train = append(train, t.burstMark, -space)
		}
		for _, frame := range cmd.Frames {
			train = appendFrame(train, t, expandFrame(frame, t), msbFirst)
		}
	}

	return &Code{Frequency: float64(t.frequency), Pulses: Normalize(train)}, nil
}

// expandFrame applies complement bytes and the checksum byte.
func expandFrame(frame []byte, t timing) []byte {
	out := make([]byte, 0, len(frame)+t.complement+1)
	for i, b := range frame {
		out = append(out, b)
		if i < t.complement {
			out = append(out, ^b)
		}
	}

	switch t.checksum {
	case ChecksumSum:
		var sum byte
		for _, b := range out {
			sum += b
		}
		out = append(out, sum)
	case ChecksumXOR:
		var x byte
		for _, b := range out {
			x ^= b
		}
		out = append(out, x)
	}
	return out
}

func appendFrame(train []int, t timing, data []byte, msbFirst bool) []int {
	if t.headerMark > 0 {
		train = append(train, t.headerMark, -t.headerSpace)
	}
	for _, b := range data {
		for i := 0; i < 8; i++ {
			bit := b >> i & 1
			if msbFirst {
				bit = b >> (7 - i) & 1
			}
			space := t.zeroSpace
			if bit == 1 {
				space = t.oneSpace
			}
			train = append(train, t.bitMark, -space)
		}
	}
	return append(train, t.bitMark, -t.gap)
}
