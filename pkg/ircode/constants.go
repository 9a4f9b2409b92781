// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ircode converts infrared command frames into timed pulse trains and
// between the textual encodings that IR transmitters accept.
//
// A Code is the canonical pulse representation: signed durations in
// microseconds (positive = mark, negative = space) and an optional carrier
// frequency. Every supported text encoding decodes to a Code and encodes
// from one, so any two of them can be converted through it.
package ircode

// Protocol names understood by FromGeneric
const (
	ProtocolNEC  = "nec"  // LSB first
	ProtocolNECB = "necb" // MSB first
)

// Generic protocol parameter defaults
const (
	DefaultBitMark   = 560
	DefaultRepeat    = 1
	DefaultFrequency = 38000
)

// Checksum modes selected by the "ck" parameter
const (
	ChecksumNone = 0
	ChecksumSum  = 1
	ChecksumXOR  = 2
)

// Broadlink packet layout
const (
	broadlinkIR      = 0x26
	broadlinkRF433   = 0xb2
	broadlinkRF315   = 0xd7
	broadlinkHeader  = 4
	broadlinkTickNum = 269
	broadlinkTickDen = 8192
	broadlinkBlock   = 16
	broadlinkMaxBody = 0xffff
)

var broadlinkTrailer = []byte{0x0d, 0x05}

// Pronto learned-code layout
const (
	prontoLearned   = 0x0000
	prontoUnit      = 0.241246 // µs per frequency-code unit
	prontoHeader    = 4
	prontoPadGapUS  = 10000 // space appended to a train that ends on a mark
	prontoWordWidth = 4
)
