// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"fmt"
	"strconv"
	"strings"
)

// Params holds the integer key=value pairs of a protocol parameter string.
type Params map[string]int

// ParseParams parses "k=v,k=v". Unknown keys are kept; callers read the ones
// they understand through Int.
func ParseParams(s string) (Params, error) {
	p := make(Params)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParams, pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, key, err)
		}
		p[key] = n
	}
	return p, nil
}

// Int returns the value of key, or def when it is absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// timing is the resolved pulse timing for a generic protocol.
type timing struct {
	bitMark     int
	zeroSpace   int
	oneSpace    int
	headerMark  int
	headerSpace int
	gap         int
	complement  int
	checksum    int
	bursts      int
	burstMark   int
	burstSpace  int
	repeat      int
	frequency   int
}

func resolveTiming(p Params) (timing, error) {
	var t timing
	t.bitMark = p.Int("tp", DefaultBitMark)
	t.zeroSpace = p.Int("t0", t.bitMark)
	t.oneSpace = p.Int("t1", 3*t.bitMark)
	t.headerMark = p.Int("ph", 16*t.bitMark)
	t.headerSpace = p.Int("pl", t.headerMark/2)
	t.checksum = p.Int("ck", ChecksumNone)

	// checksummed frames are long climate frames and get a longer settle
	gap := 20 * t.bitMark
	if t.checksum != ChecksumNone {
		gap = 40 * t.bitMark
	}
	t.gap = p.Int("pg", gap)

	t.complement = p.Int("cm", 0)
	t.bursts = p.Int("b", 0)
	t.burstMark = p.Int("bh", t.bitMark)
	t.burstSpace = p.Int("bl", t.bitMark)
	t.repeat = p.Int("r", DefaultRepeat)
	t.frequency = p.Int("f", DefaultFrequency)

	switch {
	case t.bitMark <= 0 || t.zeroSpace <= 0 || t.oneSpace <= 0:
		return t, fmt.Errorf("%w: bit timing must be positive", ErrInvalidParams)
	case t.headerMark < 0 || t.headerSpace < 0 || t.gap < 0:
		return t, fmt.Errorf("%w: header and gap must not be negative", ErrInvalidParams)
	case t.checksum < ChecksumNone || t.checksum > ChecksumXOR:
		return t, fmt.Errorf("%w: checksum mode %d", ErrInvalidParams, t.checksum)
	case t.complement < 0 || t.bursts < 0 || t.burstMark <= 0 || t.burstSpace <= 0:
		return t, fmt.Errorf("%w: complement and burst settings", ErrInvalidParams)
	case t.repeat < 1:
		return t, fmt.Errorf("%w: repeat %d", ErrInvalidParams, t.repeat)
	case t.frequency <= 0:
		return t, fmt.Errorf("%w: frequency %d", ErrInvalidParams, t.frequency)
	}
	return t, nil
}
