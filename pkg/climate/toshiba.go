// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

// Toshiba WH-D6B remote (RAS series)

const (
	toshibaProtocol = "necb"
	toshibaParams   = "ph=4367,pl=4395,cm=2,pg=5249,ck=2"
)

var toshibaFan = map[string]byte{
	"auto":   0x00,
	"mild":   0x00,
	"quiet":  0x20,
	"low":    0x40,
	"medium": 0x80,
	"high":   0xc0,
}

var toshibaMode = map[string]byte{
	ModeOff:     7,
	ModeAuto:    0,
	ModeCool:    1,
	ModeDry:     2,
	ModeHeat:    3,
	ModeFanOnly: 4,
}

// Toshiba is the device definition for code 11260.
var Toshiba = &Device{
	Code:         11260,
	Manufacturer: "Toshiba",
	SupportedModels: []string{
		"WH-D6B",
		"RAS-221B", "RAS-251B", "RAS-361B", "RAS-401S",
		"RAS-502S", "RAS-225G", "RAS-255G", "RAS-285G",
		"RAS-365G", "RAS-405G", "RAS-506G", "RAS-401B",
		"RAS-502B", "RAS-221S", "RAS-251S", "RAS-281S",
		"RAS-361S",
	},
	CommandsEncoding: EncodingGeneric,
	ModeTemperatures: []ModeRange{
		{ModeHeat, TemperatureRange{17, 30}},
		{ModeDry, TemperatureRange{17, 30}},
		{ModeCool, TemperatureRange{17, 30}},
		{ModeAuto, TemperatureRange{-5, 5}},
	},
	Precision:      1,
	OperationModes: []string{ModeAuto, ModeCool, ModeHeat, ModeDry, ModeFanOnly},
	FanModes:       []string{"auto", "mild", "quiet", "low", "medium", "high"},
	Encoder:        encodeToshiba,
}

func encodeToshiba(req Request) (GenericCommand, error) {
	fan, err := lookup(toshibaFan, "fan mode", req.FanMode)
	if err != nil {
		return GenericCommand{}, err
	}
	mode, err := lookup(toshibaMode, "hvac mode", req.HVACMode)
	if err != nil {
		return GenericCommand{}, err
	}

	// auto is relative to the standard setting: -5..5 maps to 2..12
	var temp int
	if req.HVACMode == ModeAuto {
		temp = int(req.Temperature) + 7
	} else {
		temp = int(req.Temperature) - 17
	}
	t := byte(temp&0x0f) << 4

	var d []byte
	if req.FanMode == "mild" {
		d = []byte{0xf2, 0x04, 0x09, t, mode | fan, 0x00, 0x03}
	} else {
		d = []byte{0xf2, 0x03, 0x01, t, mode | fan, 0x00}
	}

	return GenericCommand{
		Protocol: toshibaProtocol,
		Params:   toshibaParams,
		Frames:   [][]byte{d, cloneFrame(d)},
	}, nil
}

func cloneFrame(d []byte) []byte {
	return append([]byte(nil), d...)
}
