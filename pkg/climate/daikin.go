// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

// Daikin ARC478A30 remote

const (
	daikinProtocol = "nec"
	daikinParams   = "tp=421,t0=448,ph=3494,a=-1,pg=34698,b=6,bh=448,bl=446,ck=1"

	daikinToggleCleaning = "cleaning_enabled"
)

var daikinFan = map[string]byte{
	"auto":        0xa0,
	"quiet":       0xb0,
	"low":         0x30,
	"low_medium":  0x40,
	"medium":      0x50,
	"medium_high": 0x60,
	"high":        0x70,
}

var daikinDirection = map[string]byte{
	"on":     0,
	"top":    1,
	"upper":  2,
	"middle": 3,
	"lower":  4,
	"bottom": 5,
	"nice":   0,
}

var daikinMode = map[string]byte{
	ModeOff:     0x38,
	ModeAuto:    0x09,
	ModeDry:     0x29,
	ModeCool:    0x39,
	ModeHeat:    0x49,
	ModeFanOnly: 0x69,
}

// Daikin is the device definition for code 19900.
var Daikin = &Device{
	Code:         19900,
	Manufacturer: "Daikin",
	SupportedModels: []string{
		"ARC478A30",
		"F22TTES-W", "F25TTES-W", "F28TTES-W", "F36TTES-W",
		"F40TTEP-W", "F56TTEP-W", "S22TTES-W", "S25TTES-W",
		"S28TTES-W", "S36TTES-W", "S40TTEP-W", "S56TTEP-W",
	},
	CommandsEncoding: EncodingGeneric,
	ModeTemperatures: []ModeRange{
		{ModeCool, TemperatureRange{18, 32}},
		{ModeHeat, TemperatureRange{14, 30}},
		{ModeAuto, TemperatureRange{-5, 5}},
		{ModeDry, TemperatureRange{-2, 2}},
	},
	Precision:      0.5,
	OperationModes: []string{ModeAuto, ModeCool, ModeHeat, ModeDry, ModeFanOnly},
	FanModes:       []string{"auto", "quiet", "low", "low_medium", "medium", "medium_high", "high"},
	SwingModes:     []string{"on", "nice", "top", "upper", "middle", "lower", "bottom"},
	Toggles:        []string{daikinToggleCleaning},
	Encoder:        encodeDaikin,
}

func encodeDaikin(req Request) (GenericCommand, error) {
	fanMode := req.FanMode
	if req.SwingMode == "nice" {
		fanMode = "auto"
	}
	if req.HVACMode == ModeAuto && fanMode != "auto" && fanMode != "quiet" {
		fanMode = "auto"
	}

	fan, err := lookup(daikinFan, "fan mode", fanMode)
	if err != nil {
		return GenericCommand{}, err
	}
	if req.SwingMode == "on" {
		fan |= 0x0f
	}
	direction, err := lookup(daikinDirection, "swing mode", req.SwingMode)
	if err != nil {
		return GenericCommand{}, err
	}
	mode, err := lookup(daikinMode, "hvac mode", req.HVACMode)
	if err != nil {
		return GenericCommand{}, err
	}

	relative := req.HVACMode == ModeDry || req.HVACMode == ModeAuto

	var temp byte
	switch {
	case req.HVACMode == ModeOff || req.HVACMode == ModeFanOnly:
		temp = 50 // ignored by the unit
	case relative:
		temp = 0xc0 | byte(int(req.Temperature*2)&0x1f)
	default:
		temp = byte(int(req.Temperature * 2))
	}

	var power, cleaning, relativeFlag, nice byte
	if req.HVACMode == ModeOff {
		power = 0x80
	}
	if req.toggle(daikinToggleCleaning, false) {
		cleaning = 0x40
	}
	if relative {
		relativeFlag = 0x80
	}
	if req.SwingMode == "nice" {
		nice = 1
	}

	// button frame precedes the settings frame
	button := []byte{
		0x11, 0xda, 0x27, 0x00, 0x02, 0, 0, 0, 0,
		0x03, // button pressed
		0,
		power,
		direction << 4,
		0,
		cleaning,
		0, 0, 0, 0,
	}
	settings := []byte{
		0x11, 0xda, 0x27, 0, 0,
		mode,
		temp,
		relativeFlag,
		fan,
		0, 0, 0x06, 0x60, 0, 0, 0xc3,
		nice,
		0,
	}

	return GenericCommand{
		Protocol: daikinProtocol,
		Params:   daikinParams,
		Frames:   [][]byte{button, settings},
	}, nil
}
