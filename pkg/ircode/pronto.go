// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPronto renders a learned Pronto code: "0000 FREQ ONCE 0000" followed
// by the burst pairs in carrier cycles. A train ending on a mark is closed
// with a fixed space.
func FormatPronto(c *Code) (string, error) {
	durations := c.alternating()
	if len(durations) == 0 {
		return "", ErrEmpty
	}
	if len(durations)%2 == 1 {
		durations = append(durations, prontoPadGapUS)
	}

	freq := c.Frequency
	if freq <= 0 {
		freq = DefaultFrequency
	}
	freqCode := int(math.Round(1e6 / (freq * prontoUnit)))
	if freqCode < 1 || freqCode > 0xffff {
		return "", fmt.Errorf("%w: carrier %.0f Hz out of Pronto range", ErrMalformed, freq)
	}
	period := float64(freqCode) * prontoUnit

	words := make([]string, 0, prontoHeader+len(durations))
	words = append(words,
		prontoWord(prontoLearned),
		prontoWord(freqCode),
		prontoWord(len(durations)/2),
		prontoWord(0),
	)
	for _, us := range durations {
		cycles := int(math.Round(float64(us) / period))
		if cycles < 1 {
			cycles = 1
		}
		if cycles > 0xffff {
			cycles = 0xffff
		}
		words = append(words, prontoWord(cycles))
	}
	return strings.Join(words, " "), nil
}

// ParsePronto parses a learned Pronto code. The repeat sequence, if any, is
// appended after the once sequence.
func ParsePronto(s string) (*Code, error) {
	fields := strings.Fields(s)
	if len(fields) < prontoHeader {
		return nil, malformed(EncodingPronto, "need at least %d words, have %d", prontoHeader, len(fields))
	}

	words := make([]int, len(fields))
	for i, f := range fields {
		if len(f) > prontoWordWidth {
			return nil, malformed(EncodingPronto, "word %d %q wider than %d digits", i, f, prontoWordWidth)
		}
		v, err := strconv.ParseUint(f, 16, 16)
		if err != nil {
			return nil, malformed(EncodingPronto, "word %d %q is not hex", i, f)
		}
		words[i] = int(v)
	}

	if words[0] != prontoLearned {
		return nil, malformed(EncodingPronto, "unsupported format 0x%04X", words[0])
	}
	freqCode := words[1]
	if freqCode == 0 {
		return nil, malformed(EncodingPronto, "zero frequency code")
	}
	pairs := words[2] + words[3]
	if pairs == 0 {
		return nil, malformed(EncodingPronto, "no burst pairs")
	}
	if want := prontoHeader + 2*pairs; len(words) != want {
		return nil, malformed(EncodingPronto, "header declares %d words, have %d", want, len(words))
	}

	period := float64(freqCode) * prontoUnit
	durations := make([]int, 2*pairs)
	for i, cycles := range words[prontoHeader:] {
		durations[i] = int(math.Round(float64(cycles) * period))
	}

	return &Code{
		Frequency: 1e6 / period,
		Pulses:    fromAlternating(durations),
	}, nil
}

func prontoWord(v int) string {
	return fmt.Sprintf("%04X", v)
}
