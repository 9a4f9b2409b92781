// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

// Mitsubishi RH151 remote (MSZ-GV series)

const (
	mitsubishiProtocol = "nec"
	mitsubishiParams   = "tp=445,ph=3420,pg=13245,ck=1"

	toggleSelfCleaning = "self_cleaning"
	togglePowerLimit   = "power_limit"
)

var mitsubishiFan = map[string]byte{
	"auto":     0,
	"low":      1,
	"medium":   2,
	"high":     3,
	"powerful": 3,
}

var mitsubishiDirection = map[string]byte{
	"auto":   0,
	"top":    1,
	"upper":  2,
	"middle": 3,
	"lower":  4,
	"bottom": 5,
	"on":     7,
}

var mitsubishiMode = map[string]byte{
	ModeOff:  0x08,
	ModeHeat: 0x08,
	ModeDry:  0x10,
	ModeCool: 0x18,
}

// Mitsubishi is the device definition for code 19901.
var Mitsubishi = &Device{
	Code:         19901,
	Manufacturer: "Mitsubishi",
	SupportedModels: []string{
		"RH151",
		"MSZ-GV225", "MSZ-GV255", "MSZ-GV285", "MSZ-GV365",
		"MSZ-GV405S", "MSZ-GV565S", "MSZ-GV2217-W", "MSZ-GV2217-T",
		"MSZ-GV2517-W", "MSZ-GV2517-T", "MSZ-GV2817-W", "MSZ-GV2817-T",
		"MSZ-GV3617-W", "MSZ-GV3617-T", "MSZ-GV4017S-W",
	},
	CommandsEncoding: EncodingGeneric,
	ModeTemperatures: []ModeRange{
		{ModeCool, TemperatureRange{16, 31}},
		{ModeHeat, TemperatureRange{16, 31}},
		{ModeDry, TemperatureRange{-1, 1}},
	},
	Precision:      1,
	OperationModes: []string{ModeCool, ModeHeat, ModeDry},
	FanModes:       []string{"auto", "low", "medium", "high", "powerful"},
	SwingModes:     []string{"on", "auto", "top", "upper", "middle", "lower", "bottom"},
	Toggles:        []string{toggleSelfCleaning, togglePowerLimit},
	Encoder:        encodeMitsubishi,
}

func encodeMitsubishi(req Request) (GenericCommand, error) {
	fan, err := lookup(mitsubishiFan, "fan mode", req.FanMode)
	if err != nil {
		return GenericCommand{}, err
	}
	if req.SwingMode == "on" {
		fan |= 0x0f
	}
	direction, err := lookup(mitsubishiDirection, "swing mode", req.SwingMode)
	if err != nil {
		return GenericCommand{}, err
	}
	mode, err := lookup(mitsubishiMode, "hvac mode", req.HVACMode)
	if err != nil {
		return GenericCommand{}, err
	}

	var subMode byte
	switch req.HVACMode {
	case ModeDry:
		// dry carries its -1..1 offset here
		subMode = byte(0x30 + (int(req.Temperature)+1)*2)
	case ModeCool:
		subMode = 0x36
	default:
		subMode = 0x30
	}

	var temp byte
	if req.HVACMode == ModeOff || req.HVACMode == ModeDry {
		temp = 8
	} else {
		temp = byte(int(req.Temperature) - 16)
	}

	const beepCount = 1

	var power, limit, cleaning, powerful byte
	if req.HVACMode != ModeOff {
		power = 0x20
	}
	if req.toggle(togglePowerLimit, false) {
		limit = 0x04
	}
	if req.toggle(toggleSelfCleaning, true) {
		cleaning = 0x04
	}
	if req.FanMode == "powerful" {
		powerful = 0x10
	}

	d := []byte{
		0x23, 0xcb, 0x26, 0x01,
		0,
		power,
		mode | limit,
		temp,
		subMode,
		beepCount<<6 | fan | direction<<3,
		0, 0, 0, 0,
		cleaning,
		powerful,
		0,
	}

	return GenericCommand{
		Protocol: mitsubishiProtocol,
		Params:   mitsubishiParams,
		Frames:   [][]byte{d, cloneFrame(d)},
	}, nil
}
