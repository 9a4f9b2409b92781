// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ircode

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/Thermoquad/smartir/pkg/climate"
)

// ============================================================
// Params Tests
// ============================================================

func TestParseParams(t *testing.T) {
	p, err := ParseParams("tp=421, t0=448,ph=3494,a=-1,,pg=34698")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	want := Params{"tp": 421, "t0": 448, "ph": 3494, "a": -1, "pg": 34698}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("ParseParams = %v, want %v", p, want)
	}
	if got := p.Int("ck", 7); got != 7 {
		t.Errorf("Int(missing) = %d, want default 7", got)
	}
	if got := p.Int("a", 0); got != -1 {
		t.Errorf("Int(a) = %d, want -1", got)
	}
}

func TestParseParams_Empty(t *testing.T) {
	p, err := ParseParams("")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if len(p) != 0 {
		t.Errorf("expected no params, got %v", p)
	}
}

func TestParseParams_Invalid(t *testing.T) {
	for _, s := range []string{"tp", "=5", "tp=abc", "tp=1.5", "tp=1,ph"} {
		if _, err := ParseParams(s); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("ParseParams(%q) error = %v, want ErrInvalidParams", s, err)
		}
	}
}

// ============================================================
// FromGeneric Tests
// ============================================================

// zeros returns n zero bits at the given timing.
func zeros(n, mark, space int) []int {
	var out []int
	for i := 0; i < n; i++ {
		out = append(out, mark, -space)
	}
	return out
}

func concat(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestFromGeneric_BitOrder(t *testing.T) {
	// a single set bit sent first: bit 0 for nec, bit 7 for necb
	want := concat(
		[]int{4000, -2000, 500, -1500},
		zeros(7, 500, 500),
		[]int{500, -10000},
	)

	tests := []struct {
		name     string
		protocol string
		frame    byte
	}{
		{"nec lsb first", ProtocolNEC, 0x01},
		{"necb msb first", ProtocolNECB, 0x80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := FromGeneric(climate.GenericCommand{
				Protocol: tt.protocol,
				Params:   "tp=500,ph=4000,pl=2000,pg=10000",
				Frames:   [][]byte{{tt.frame}},
			})
			if err != nil {
				t.Fatalf("FromGeneric failed: %v", err)
			}
			if !reflect.DeepEqual(c.Pulses, want) {
				t.Errorf("Pulses = %v, want %v", c.Pulses, want)
			}
			if c.Frequency != DefaultFrequency {
				t.Errorf("Frequency = %v, want %d", c.Frequency, DefaultFrequency)
			}
		})
	}
}

func TestFromGeneric_Defaults(t *testing.T) {
	c, err := FromGeneric(climate.GenericCommand{Protocol: ProtocolNEC, Frames: [][]byte{{0x00}}})
	if err != nil {
		t.Fatalf("FromGeneric failed: %v", err)
	}
	want := concat(
		[]int{16 * 560, -8 * 560},
		zeros(8, 560, 560),
		[]int{560, -20 * 560},
	)
	if !reflect.DeepEqual(c.Pulses, want) {
		t.Errorf("Pulses = %v, want %v", c.Pulses, want)
	}
}

func TestFromGeneric_ChecksumGapDefault(t *testing.T) {
	c, err := FromGeneric(climate.GenericCommand{Protocol: ProtocolNEC, Params: "tp=100,ck=1", Frames: [][]byte{{0x00}}})
	if err != nil {
		t.Fatalf("FromGeneric failed: %v", err)
	}
	if got := c.Pulses[len(c.Pulses)-1]; got != -4000 {
		t.Errorf("trailing gap = %d, want -4000", got)
	}
}

func TestFromGeneric_BurstPreambleAndRepeat(t *testing.T) {
	c, err := FromGeneric(climate.GenericCommand{
		Protocol: ProtocolNEC,
		Params:   "tp=100,ph=0,b=2,bh=300,bl=200,pg=5000,r=2,f=40000",
		Frames:   [][]byte{{0x00}},
	})
	if err != nil {
		t.Fatalf("FromGeneric failed: %v", err)
	}
	once := concat(
		[]int{300, -200, 300, -5000},
		zeros(8, 100, 100),
		[]int{100, -5000},
	)
	if want := concat(once, once); !reflect.DeepEqual(c.Pulses, want) {
		t.Errorf("Pulses = %v, want %v", c.Pulses, want)
	}
	if c.Frequency != 40000 {
		t.Errorf("Frequency = %v, want 40000", c.Frequency)
	}
}

func TestExpandFrame_ComplementAndChecksum(t *testing.T) {
	tests := []struct {
		name   string
		frame  []byte
		params string
		want   []byte
	}{
		{
			name:   "toshiba complement with xor",
			frame:  []byte{0xf2, 0x03, 0x01, 0x70, 0xc1, 0x00},
			params: "cm=2,ck=2",
			want:   []byte{0xf2, 0x0d, 0x03, 0xfc, 0x01, 0x70, 0xc1, 0x00, 0xb0},
		},
		{
			name:   "byte sum wraps",
			frame:  []byte{0x01, 0x02, 0xff},
			params: "ck=1",
			want:   []byte{0x01, 0x02, 0xff, 0x02},
		},
		{
			name:   "plain",
			frame:  []byte{0xaa, 0x55},
			params: "",
			want:   []byte{0xaa, 0x55},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseParams(tt.params)
			if err != nil {
				t.Fatalf("ParseParams failed: %v", err)
			}
			timing, err := resolveTiming(p)
			if err != nil {
				t.Fatalf("resolveTiming failed: %v", err)
			}
			if got := expandFrame(tt.frame, timing); !bytes.Equal(got, tt.want) {
				t.Errorf("expandFrame = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestFromGeneric_BuiltinDevices(t *testing.T) {
	reg := climate.Builtin()
	for _, code := range reg.Codes() {
		d, _ := reg.Lookup(code)
		req := climate.Request{HVACMode: climate.ModeCool, FanMode: "auto", Temperature: 20}
		if d.SupportsSwing() {
			req.SwingMode = d.SwingModes[0]
		}
		cmd, err := climate.Encode(d, req)
		if err != nil {
			t.Fatalf("%s: Encode failed: %v", d.Manufacturer, err)
		}
		c, err := FromGeneric(cmd)
		if err != nil {
			t.Fatalf("%s: FromGeneric failed: %v", d.Manufacturer, err)
		}
		if c.Pulses[0] <= 0 {
			t.Errorf("%s: train must start with a mark", d.Manufacturer)
		}
		if c.Pulses[len(c.Pulses)-1] >= 0 {
			t.Errorf("%s: train must end with a gap", d.Manufacturer)
		}
		for i := 1; i < len(c.Pulses); i++ {
			if (c.Pulses[i] > 0) == (c.Pulses[i-1] > 0) {
				t.Fatalf("%s: pulses %d and %d share a sign", d.Manufacturer, i-1, i)
			}
		}
	}
}

func TestFromGeneric_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  climate.GenericCommand
		want error
	}{
		{"unknown protocol", climate.GenericCommand{Protocol: "rc5", Frames: [][]byte{{1}}}, ErrUnknownProtocol},
		{"no frames", climate.GenericCommand{Protocol: ProtocolNEC}, ErrEmpty},
		{"bad params", climate.GenericCommand{Protocol: ProtocolNEC, Params: "tp=x", Frames: [][]byte{{1}}}, ErrInvalidParams},
		{"zero bit mark", climate.GenericCommand{Protocol: ProtocolNEC, Params: "tp=0", Frames: [][]byte{{1}}}, ErrInvalidParams},
		{"bad checksum mode", climate.GenericCommand{Protocol: ProtocolNEC, Params: "ck=3", Frames: [][]byte{{1}}}, ErrInvalidParams},
		{"zero repeat", climate.GenericCommand{Protocol: ProtocolNEC, Params: "r=0", Frames: [][]byte{{1}}}, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromGeneric(tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

// ============================================================
// Normalize Tests
// ============================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"already normal", []int{100, -200, 300}, []int{100, -200, 300}},
		{"merge marks", []int{100, 50, -200}, []int{150, -200}},
		{"merge spaces", []int{100, -200, -300, 400}, []int{100, -500, 400}},
		{"drop zeros", []int{100, 0, -200, 0, 300}, []int{100, -200, 300}},
		{"zero joins neighbours", []int{100, -200, 0, -50}, []int{100, -250}},
		{"all positive alternates", []int{9000, 4500, 560, 560}, []int{9000, -4500, 560, -560}},
		{"empty", nil, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCode_Duration(t *testing.T) {
	c := &Code{Pulses: []int{1000, -500, 250}}
	if got := c.Duration().Microseconds(); got != 1750 {
		t.Errorf("Duration = %dµs, want 1750", got)
	}
	if got := c.Marks(); got != 2 {
		t.Errorf("Marks = %d, want 2", got)
	}
}
