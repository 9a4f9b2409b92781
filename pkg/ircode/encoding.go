// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Thermoquad/smartir/pkg/climate"
)

// Encoding names, shared with device definitions
const (
	EncodingBase64  = climate.EncodingBase64
	EncodingHex     = climate.EncodingHex
	EncodingPronto  = climate.EncodingPronto
	EncodingRaw     = climate.EncodingRaw
	EncodingXiaomi  = climate.EncodingXiaomi
	EncodingGeneric = climate.EncodingGeneric
)

// Convertible reports whether enc has a codec. Xiaomi codes are opaque and
// Generic is only ever a source.
func Convertible(enc string) bool {
	switch enc {
	case EncodingBase64, EncodingHex, EncodingPronto, EncodingRaw:
		return true
	}
	return false
}

// Encodings returns the convertible encodings.
func Encodings() []string {
	return []string{EncodingBase64, EncodingHex, EncodingPronto, EncodingRaw}
}

// Decode parses text in the named encoding.
func Decode(enc, text string) (*Code, error) {
	switch enc {
	case EncodingBase64:
		packet, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, malformed(enc, "%v", err)
		}
		return UnmarshalBroadlink(enc, packet)
	case EncodingHex:
		packet, err := hex.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, malformed(enc, "%v", err)
		}
		return UnmarshalBroadlink(enc, packet)
	case EncodingPronto:
		return ParsePronto(text)
	case EncodingRaw:
		return ParseRaw(text)
	}
	return nil, fmt.Errorf("%w: cannot decode %q", ErrUnsupportedEncoding, enc)
}

// Encode renders c in the named encoding.
func Encode(enc string, c *Code) (string, error) {
	if c == nil {
		return "", ErrEmpty
	}
	switch enc {
	case EncodingBase64:
		packet, err := MarshalBroadlink(c)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(packet), nil
	case EncodingHex:
		packet, err := MarshalBroadlink(c)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(packet), nil
	case EncodingPronto:
		return FormatPronto(c)
	case EncodingRaw:
		return FormatRaw(c)
	}
	return "", fmt.Errorf("%w: cannot encode %q", ErrUnsupportedEncoding, enc)
}

// Convert re-encodes text from one encoding into another.
func Convert(from, to, text string) (string, error) {
	c, err := Decode(from, text)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", from, err)
	}
	return Encode(to, c)
}
