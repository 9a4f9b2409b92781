// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

import (
	"bytes"
	"errors"
	"testing"
)

func twice(d []byte) [][]byte {
	return [][]byte{d, d}
}

func framesEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestEncode_GoldenFrames(t *testing.T) {
	tests := []struct {
		name   string
		device *Device
		req    Request
		want   [][]byte
	}{
		{
			name:   "toshiba cool high 24",
			device: Toshiba,
			req:    Request{HVACMode: ModeCool, FanMode: "high", Temperature: 24},
			want:   twice([]byte{0xf2, 0x03, 0x01, 0x70, 0xc1, 0x00}),
		},
		{
			name:   "toshiba auto mild relative -2",
			device: Toshiba,
			req:    Request{HVACMode: ModeAuto, FanMode: "mild", Temperature: -2},
			want:   twice([]byte{0xf2, 0x04, 0x09, 0x50, 0x00, 0x00, 0x03}),
		},
		{
			name:   "toshiba off",
			device: Toshiba,
			req:    Request{HVACMode: ModeOff, FanMode: "auto", Temperature: 22},
			want:   twice([]byte{0xf2, 0x03, 0x01, 0x50, 0x07, 0x00}),
		},
		{
			name:   "daikin cool medium top 24.5",
			device: Daikin,
			req:    Request{HVACMode: ModeCool, FanMode: "medium", SwingMode: "top", Temperature: 24.5},
			want: [][]byte{
				{0x11, 0xda, 0x27, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
				{0x11, 0xda, 0x27, 0x00, 0x00, 0x39, 0x31, 0x00, 0x50, 0x00, 0x00, 0x06, 0x60, 0x00, 0x00, 0xc3, 0x00, 0x00},
			},
		},
		{
			name:   "daikin dry relative -1.5 nice",
			device: Daikin,
			req:    Request{HVACMode: ModeDry, FanMode: "high", SwingMode: "nice", Temperature: -1.5},
			want: [][]byte{
				{0x11, 0xda, 0x27, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
				{0x11, 0xda, 0x27, 0x00, 0x00, 0x29, 0xdd, 0x80, 0xa0, 0x00, 0x00, 0x06, 0x60, 0x00, 0x00, 0xc3, 0x01, 0x00},
			},
		},
		{
			name:   "daikin off swing on with cleaning",
			device: Daikin,
			req: Request{
				HVACMode: ModeOff, FanMode: "quiet", SwingMode: "on", Temperature: 20,
				Toggles: map[string]bool{daikinToggleCleaning: true},
			},
			want: [][]byte{
				{0x11, 0xda, 0x27, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x03, 0x00, 0x80, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00},
				{0x11, 0xda, 0x27, 0x00, 0x00, 0x38, 0x32, 0x00, 0xbf, 0x00, 0x00, 0x06, 0x60, 0x00, 0x00, 0xc3, 0x00, 0x00},
			},
		},
		{
			name:   "mitsubishi cool high middle 24",
			device: Mitsubishi,
			req:    Request{HVACMode: ModeCool, FanMode: "high", SwingMode: "middle", Temperature: 24},
			want:   twice([]byte{0x23, 0xcb, 0x26, 0x01, 0x00, 0x20, 0x18, 0x08, 0x36, 0x5b, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00}),
		},
		{
			name:   "mitsubishi dry powerful with power limit",
			device: Mitsubishi,
			req: Request{
				HVACMode: ModeDry, FanMode: "powerful", SwingMode: "on", Temperature: 1,
				Toggles: map[string]bool{toggleSelfCleaning: false, togglePowerLimit: true},
			},
			want: twice([]byte{0x23, 0xcb, 0x26, 0x01, 0x00, 0x20, 0x14, 0x08, 0x34, 0x7f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00}),
		},
		{
			name:   "mitsubishi off",
			device: Mitsubishi,
			req:    Request{HVACMode: ModeOff, FanMode: "auto", SwingMode: "auto", Temperature: 20},
			want:   twice([]byte{0x23, 0xcb, 0x26, 0x01, 0x00, 0x00, 0x08, 0x08, 0x30, 0x40, 0x00, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00}),
		},
		{
			name:   "sharp cool medium upper 25",
			device: Sharp,
			req:    Request{HVACMode: ModeCool, FanMode: "medium", SwingMode: "upper", Temperature: 25},
			want:   twice([]byte{0xaa, 0x5a, 0xcf, 0x10, 0x08, 0x11, 0x72, 0x00, 0x0a, 0xa0, 0x00, 0xe0, 0xf1}),
		},
		{
			name:   "sharp heat shifts direction down",
			device: Sharp,
			req: Request{
				HVACMode: ModeHeat, FanMode: "low", SwingMode: "upper", Temperature: 22,
				Toggles: map[string]bool{toggleIonizer: true},
			},
			want: twice([]byte{0xaa, 0x5a, 0xcf, 0x10, 0x05, 0x11, 0x31, 0x00, 0x09, 0xa0, 0x00, 0xe4, 0x21}),
		},
		{
			name:   "sharp dry forces fan auto",
			device: Sharp,
			req:    Request{HVACMode: ModeDry, FanMode: "high", SwingMode: "bottom", Temperature: -2},
			want:   twice([]byte{0xaa, 0x5a, 0xcf, 0x10, 0xa0, 0x11, 0x23, 0x00, 0x0d, 0xa0, 0x00, 0xe0, 0xe1}),
		},
		{
			name:   "sharp start self cleaning while off",
			device: Sharp,
			req:    Request{HVACMode: ModeOff, FanMode: "auto", SwingMode: "auto", Temperature: 20, Action: ActionStartSelfCleaning},
			want:   twice([]byte{0xaa, 0x5a, 0xcf, 0x10, 0x00, 0x21, 0x2b, 0x00, 0x08, 0x80, 0x00, 0xe0, 0x81}),
		},
		{
			name:   "sharp toggle brightness while on",
			device: Sharp,
			req:    Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "auto", Temperature: 20, Action: ActionToggleBrightness},
			want:   twice([]byte{0xaa, 0x5a, 0xcf, 0x10, 0x03, 0x61, 0x22, 0x80, 0x08, 0xa0, 0x00, 0xe0, 0xc1}),
		},
		{
			name:   "sharp toggle brightness dropped while off",
			device: Sharp,
			req:    Request{HVACMode: ModeOff, FanMode: "auto", SwingMode: "auto", Temperature: 20, Action: ActionToggleBrightness},
			want:   twice([]byte{0xaa, 0x5a, 0xcf, 0x10, 0x01, 0x21, 0x21, 0x00, 0x08, 0xa0, 0x00, 0xe0, 0x11}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Encode(tt.device, tt.req)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !framesEqual(cmd.Frames, tt.want) {
				t.Errorf("frames mismatch:\n got  % x\n want % x", cmd.Frames, tt.want)
			}
		})
	}
}

func TestEncode_ProtocolAndParams(t *testing.T) {
	tests := []struct {
		device   *Device
		req      Request
		protocol string
		params   string
	}{
		{Toshiba, Request{HVACMode: ModeCool, FanMode: "auto", Temperature: 20}, "necb", "ph=4367,pl=4395,cm=2,pg=5249,ck=2"},
		{Daikin, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "on", Temperature: 20}, "nec", "tp=421,t0=448,ph=3494,a=-1,pg=34698,b=6,bh=448,bl=446,ck=1"},
		{Mitsubishi, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "on", Temperature: 20}, "nec", "tp=445,ph=3420,pg=13245,ck=1"},
		{Sharp, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "on", Temperature: 20}, "nec", "tp=461,ph=3729"},
	}

	for _, tt := range tests {
		t.Run(tt.device.Manufacturer, func(t *testing.T) {
			cmd, err := Encode(tt.device, tt.req)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if cmd.Protocol != tt.protocol {
				t.Errorf("Protocol = %q, want %q", cmd.Protocol, tt.protocol)
			}
			if cmd.Params != tt.params {
				t.Errorf("Params = %q, want %q", cmd.Params, tt.params)
			}
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	for _, d := range []*Device{Toshiba, Daikin, Mitsubishi, Sharp} {
		d := d
		t.Run(d.Manufacturer, func(t *testing.T) {
			swings := d.SwingModes
			if len(swings) == 0 {
				swings = []string{""}
			}
			for _, mode := range d.HVACModes() {
				r, ok := d.Range(mode)
				if !ok {
					r = TemperatureRange{Min: 20, Max: 20}
				}
				for _, fan := range d.FanModes {
					for _, swing := range swings {
						for temp := r.Min; temp <= r.Max; temp += d.Precision {
							req := Request{HVACMode: mode, FanMode: fan, SwingMode: swing, Temperature: temp}
							first, err := Encode(d, req)
							if err != nil {
								t.Fatalf("Encode(%+v) failed: %v", req, err)
							}
							second, err := Encode(d, req)
							if err != nil {
								t.Fatalf("Encode(%+v) failed: %v", req, err)
							}
							if !framesEqual(first.Frames, second.Frames) {
								t.Fatalf("Encode(%+v) not deterministic", req)
							}
						}
					}
				}
			}
		})
	}
}

func TestEncode_FramesAreIndependent(t *testing.T) {
	cmd, err := Encode(Toshiba, Request{HVACMode: ModeCool, FanMode: "high", Temperature: 24})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	cmd.Frames[0][0] = 0x00
	if cmd.Frames[1][0] != 0xf2 {
		t.Error("repeated frames must not share backing storage")
	}
}

func TestSharp_ChecksumInvariant(t *testing.T) {
	for _, mode := range Sharp.HVACModes() {
		for _, fan := range Sharp.FanModes {
			for _, swing := range Sharp.SwingModes {
				for _, ion := range []bool{false, true} {
					req := Request{
						HVACMode: mode, FanMode: fan, SwingMode: swing, Temperature: 0,
						Toggles: map[string]bool{toggleIonizer: ion},
					}
					if r, ok := Sharp.Range(mode); ok {
						req.Temperature = r.Min
					}
					cmd, err := Encode(Sharp, req)
					if err != nil {
						t.Fatalf("Encode(%+v) failed: %v", req, err)
					}
					frame := cmd.Frames[0]
					last := frame[len(frame)-1]
					// fold everything except the checksum nibble itself
					body := append(append([]byte(nil), frame[:len(frame)-1]...), last&0x0f)
					if got, want := last>>4, ChecksumNibbleXOR(body); got != want {
						t.Errorf("%+v: checksum nibble 0x%x, want 0x%x", req, got, want)
					}
				}
			}
		}
	}
}

func TestChecksumNibbleXOR_FoldOrder(t *testing.T) {
	tests := []struct {
		data []byte
		want byte
	}{
		{nil, 0x0},
		{[]byte{0x12}, 0x3},
		{[]byte{0xaa, 0x5a}, 0x0 ^ 0xf},
		{[]byte{0xff, 0x0f}, 0xf},
	}
	for _, tt := range tests {
		if got := ChecksumNibbleXOR(tt.data); got != tt.want {
			t.Errorf("ChecksumNibbleXOR(% x) = 0x%x, want 0x%x", tt.data, got, tt.want)
		}
	}
}

func TestDaikin_NiceForcesFanAuto(t *testing.T) {
	for _, mode := range Daikin.HVACModes() {
		temp := 0.0
		if r, ok := Daikin.Range(mode); ok {
			temp = r.Min
		}
		for _, fan := range Daikin.FanModes {
			nice, err := Encode(Daikin, Request{HVACMode: mode, FanMode: fan, SwingMode: "nice", Temperature: temp})
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			auto, err := Encode(Daikin, Request{HVACMode: mode, FanMode: "auto", SwingMode: "nice", Temperature: temp})
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if nice.Frames[1][8] != auto.Frames[1][8] {
				t.Errorf("mode %s fan %s: fan byte 0x%02x, want 0x%02x", mode, fan, nice.Frames[1][8], auto.Frames[1][8])
			}
		}
	}
}

func TestDaikin_AutoModeRestrictsFan(t *testing.T) {
	cmd, err := Encode(Daikin, Request{HVACMode: ModeAuto, FanMode: "high", SwingMode: "top", Temperature: 0})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got := cmd.Frames[1][8]; got != 0xa0 {
		t.Errorf("fan byte = 0x%02x, want 0xa0 (auto)", got)
	}

	cmd, err = Encode(Daikin, Request{HVACMode: ModeAuto, FanMode: "quiet", SwingMode: "top", Temperature: 0})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got := cmd.Frames[1][8]; got != 0xb0 {
		t.Errorf("fan byte = 0x%02x, want 0xb0 (quiet)", got)
	}
}

func TestEncode_UnsupportedValue(t *testing.T) {
	tests := []struct {
		name   string
		device *Device
		req    Request
		field  string
	}{
		{"unknown hvac mode", Toshiba, Request{HVACMode: "turbo", FanMode: "auto"}, "hvac mode"},
		{"mode not declared", Mitsubishi, Request{HVACMode: ModeFanOnly, FanMode: "auto", SwingMode: "auto"}, "hvac mode"},
		{"unknown fan", Toshiba, Request{HVACMode: ModeCool, FanMode: "hurricane"}, "fan mode"},
		{"missing swing", Daikin, Request{HVACMode: ModeCool, FanMode: "auto"}, "swing mode"},
		{"unknown swing", Sharp, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "nice"}, "swing mode"},
		{"unknown toggle", Sharp, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "auto", Toggles: map[string]bool{"turbo": true}}, "toggle"},
		{"unknown action", Sharp, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "auto", Action: "dance"}, "action"},
		{"action on device without actions", Toshiba, Request{HVACMode: ModeCool, FanMode: "auto", Action: ActionToggleBrightness}, "action"},
		{"sharp dry temperature out of range", Sharp, Request{HVACMode: ModeDry, FanMode: "auto", SwingMode: "auto", Temperature: 5}, "temperature"},
		{"toshiba temperature above range", Toshiba, Request{HVACMode: ModeCool, FanMode: "auto", Temperature: 33}, "temperature"},
		{"toshiba auto offset below range", Toshiba, Request{HVACMode: ModeAuto, FanMode: "auto", Temperature: -6}, "temperature"},
		{"mitsubishi temperature below range", Mitsubishi, Request{HVACMode: ModeHeat, FanMode: "auto", SwingMode: "auto", Temperature: 10}, "temperature"},
		{"daikin temperature above range", Daikin, Request{HVACMode: ModeCool, FanMode: "auto", SwingMode: "on", Temperature: 40}, "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Encode(tt.device, tt.req)
			if err == nil {
				t.Fatalf("expected error, got frames % x", cmd.Frames)
			}
			if !errors.Is(err, ErrUnsupportedValue) {
				t.Fatalf("error %v is not ErrUnsupportedValue", err)
			}
			var uv *UnsupportedValueError
			if !errors.As(err, &uv) {
				t.Fatalf("error %v is not *UnsupportedValueError", err)
			}
			if uv.Field != tt.field {
				t.Errorf("Field = %q, want %q", uv.Field, tt.field)
			}
			if cmd.Frames != nil {
				t.Error("no frames may be built on validation failure")
			}
		})
	}
}

func TestEncode_SwingIgnoredWithoutSwingModes(t *testing.T) {
	a, err := Encode(Toshiba, Request{HVACMode: ModeCool, FanMode: "low", Temperature: 20})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	b, err := Encode(Toshiba, Request{HVACMode: ModeCool, FanMode: "low", SwingMode: "whatever", Temperature: 20})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !framesEqual(a.Frames, b.Frames) {
		t.Error("swing must not affect devices without swing modes")
	}
}

func TestEncode_NoEncoder(t *testing.T) {
	d := &Device{Code: 1000, FanModes: []string{"auto"}}
	if _, err := Encode(d, Request{HVACMode: ModeOff, FanMode: "auto"}); err == nil {
		t.Error("expected error for device without encoder")
	}
}
