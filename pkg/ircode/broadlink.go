// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Carrier frequencies implied by the Broadlink packet type byte
const (
	FrequencyRF433 = 433.92e6
	FrequencyRF315 = 315e6
)

// MarshalBroadlink builds a Broadlink IR/RF packet.
//
// Layout: type, repeat, pulse byte count (LE16), pulses in ticks of
// 8192/269 µs, then 0x0d 0x05. Ticks below 256 take one byte, longer ones
// 0x00 and a big-endian uint16. The packet is zero padded so that its length
// plus four is a multiple of 16.
func MarshalBroadlink(c *Code) ([]byte, error) {
	durations := c.alternating()
	if len(durations) == 0 {
		return nil, ErrEmpty
	}

	body := make([]byte, 0, len(durations))
	for _, us := range durations {
		ticks := usToTicks(us)
		if ticks < 0x100 {
			body = append(body, byte(ticks))
		} else {
			body = append(body, 0x00, byte(ticks>>8), byte(ticks))
		}
	}

	if len(body) > broadlinkMaxBody {
		return nil, fmt.Errorf("%w: %d pulse bytes exceed the Broadlink length field", ErrMalformed, len(body))
	}

	packet := make([]byte, broadlinkHeader, broadlinkHeader+len(body)+len(broadlinkTrailer)+broadlinkBlock)
	packet[0] = broadlinkType(c.Frequency)
	packet[1] = byte(c.Repeat)
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(body)))
	packet = append(packet, body...)
	packet = append(packet, broadlinkTrailer...)
	if rem := (len(packet) + 4) % broadlinkBlock; rem != 0 {
		packet = append(packet, make([]byte, broadlinkBlock-rem)...)
	}
	return packet, nil
}

// UnmarshalBroadlink parses a Broadlink packet. Bytes after the declared
// pulse count are ignored.
func UnmarshalBroadlink(enc string, packet []byte) (*Code, error) {
	if len(packet) < broadlinkHeader {
		return nil, malformed(enc, "packet too short (%d bytes)", len(packet))
	}

	var freq float64
	switch packet[0] {
	case broadlinkIR:
	case broadlinkRF433:
		freq = FrequencyRF433
	case broadlinkRF315:
		freq = FrequencyRF315
	default:
		return nil, malformed(enc, "unknown packet type 0x%02x", packet[0])
	}

	n := int(binary.LittleEndian.Uint16(packet[2:4]))
	if broadlinkHeader+n > len(packet) {
		return nil, malformed(enc, "declared %d pulse bytes, have %d", n, len(packet)-broadlinkHeader)
	}
	body := packet[broadlinkHeader : broadlinkHeader+n]

	var durations []int
	for i := 0; i < len(body); i++ {
		ticks := int(body[i])
		if ticks == 0 {
			if i+2 >= len(body) {
				return nil, malformed(enc, "truncated long pulse at byte %d", broadlinkHeader+i)
			}
			ticks = int(binary.BigEndian.Uint16(body[i+1 : i+3]))
			i += 2
		}
		durations = append(durations, ticksToUS(ticks))
	}
	if len(durations) == 0 {
		return nil, malformed(enc, "no pulses")
	}

	return &Code{
		Frequency: freq,
		Pulses:    fromAlternating(durations),
		Repeat:    int(packet[1]),
	}, nil
}

func broadlinkType(freq float64) byte {
	switch {
	case freq >= 400e6:
		return broadlinkRF433
	case freq >= 300e6:
		return broadlinkRF315
	}
	return broadlinkIR
}

func usToTicks(us int) int {
	ticks := int(math.Round(float64(us) * broadlinkTickNum / broadlinkTickDen))
	if ticks < 1 {
		return 1
	}
	if ticks > 0xffff {
		return 0xffff
	}
	return ticks
}

func ticksToUS(ticks int) int {
	return int(math.Round(float64(ticks) * broadlinkTickDen / broadlinkTickNum))
}
