// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package climate encodes climate commands into device-specific IR frames.
//
// Each supported appliance family has a pure encoder that packs the
// operation mode, fan speed, swing position, target temperature and feature
// toggles into the byte frames its remote would transmit. The frames are
// returned as a GenericCommand together with the name and timing parameters
// of the pulse protocol that serializes them (see package ircode).
package climate

// HVAC operation modes
const (
	ModeOff     = "off"
	ModeAuto    = "auto"
	ModeCool    = "cool"
	ModeHeat    = "heat"
	ModeDry     = "dry"
	ModeFanOnly = "fan_only"
)

// Command encodings a device definition may declare
const (
	EncodingBase64  = "Base64"
	EncodingHex     = "Hex"
	EncodingPronto  = "Pronto"
	EncodingRaw     = "Raw"
	EncodingXiaomi  = "Xiaomi"
	EncodingGeneric = "Generic"
)

// Request is a single climate command.
// SwingMode and Action are empty when absent.
type Request struct {
	HVACMode    string
	FanMode     string
	SwingMode   string
	Temperature float64
	Toggles     map[string]bool
	Action      string
}

// toggle returns the named toggle, or def when the request does not set it.
func (r Request) toggle(name string, def bool) bool {
	if v, ok := r.Toggles[name]; ok {
		return v
	}
	return def
}

// GenericCommand is the protocol-level output of an encoder: the pulse
// protocol name, its comma separated key=value timing parameters, and the
// ordered frames prior to bit serialization.
type GenericCommand struct {
	Protocol string
	Params   string
	Frames   [][]byte
}

// Encoder packs a validated request into frames.
type Encoder func(req Request) (GenericCommand, error)

// TemperatureRange is an inclusive settable temperature interval.
type TemperatureRange struct {
	Min float64
	Max float64
}

// Contains reports whether t lies within the range.
func (r TemperatureRange) Contains(t float64) bool {
	return t >= r.Min && t <= r.Max
}

// ModeRange is the temperature range of one operation mode.
type ModeRange struct {
	Mode string
	TemperatureRange
}

// Device is an immutable device definition.
type Device struct {
	Code              int
	Manufacturer      string
	SupportedModels   []string
	CommandsEncoding  string
	DefaultController string

	// Exactly one of Temperature and ModeTemperatures is set.
	// ModeTemperatures keeps the declaration order.
	Temperature      *TemperatureRange
	ModeTemperatures []ModeRange

	Precision      float64
	OperationModes []string
	FanModes       []string
	SwingModes     []string
	Toggles        []string
	Actions        []string

	// Encoder is set for devices with a protocol encoder, Commands for
	// devices driven by a learned command table.
	Encoder  Encoder
	Commands *CommandTable
}

// PerModeRange reports whether the device declares temperature bounds per mode.
func (d *Device) PerModeRange() bool {
	return d.Temperature == nil
}

// Range returns the temperature range for the mode, and false if the mode
// takes no temperature.
func (d *Device) Range(mode string) (TemperatureRange, bool) {
	if d.Temperature != nil {
		return *d.Temperature, true
	}
	for _, r := range d.ModeTemperatures {
		if r.Mode == mode {
			return r.TemperatureRange, true
		}
	}
	return TemperatureRange{}, false
}

// HVACModes returns off followed by the declared operation modes.
func (d *Device) HVACModes() []string {
	modes := make([]string, 0, len(d.OperationModes)+1)
	modes = append(modes, ModeOff)
	for _, m := range d.OperationModes {
		if m != ModeOff && isHVACMode(m) {
			modes = append(modes, m)
		}
	}
	return modes
}

// SupportsSwing reports whether the device declares swing modes.
func (d *Device) SupportsSwing() bool {
	return len(d.SwingModes) > 0
}

func isHVACMode(m string) bool {
	switch m {
	case ModeOff, ModeAuto, ModeCool, ModeHeat, ModeDry, ModeFanOnly:
		return true
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
