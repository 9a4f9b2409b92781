// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

import "fmt"

// Encode validates req against the device's declared mode sets and runs the
// device encoder. No frame is built when validation fails.
func Encode(d *Device, req Request) (GenericCommand, error) {
	if d.Encoder == nil {
		return GenericCommand{}, fmt.Errorf("device %d has no encoder", d.Code)
	}
	if err := Validate(d, req); err != nil {
		return GenericCommand{}, err
	}
	return d.Encoder(req)
}

// Validate checks every enum field of req against the device definition,
// and the temperature against the range of the requested mode.
func Validate(d *Device, req Request) error {
	if req.HVACMode != ModeOff && !contains(d.OperationModes, req.HVACMode) {
		return unsupported("hvac mode", req.HVACMode)
	}
	if !contains(d.FanModes, req.FanMode) {
		return unsupported("fan mode", req.FanMode)
	}
	if d.SupportsSwing() && !contains(d.SwingModes, req.SwingMode) {
		return unsupported("swing mode", req.SwingMode)
	}
	for name := range req.Toggles {
		if !contains(d.Toggles, name) {
			return unsupported("toggle", name)
		}
	}
	if req.Action != "" && !contains(d.Actions, req.Action) {
		return unsupported("action", req.Action)
	}
	if req.HVACMode != ModeOff {
		if r, ok := d.Range(req.HVACMode); ok && !r.Contains(req.Temperature) {
			return unsupported("temperature", FormatTemperature(req.Temperature))
		}
	}
	return nil
}

// ChecksumNibbleXOR folds every nibble of data with XOR, low nibble first.
func ChecksumNibbleXOR(data []byte) byte {
	var csum byte
	for _, b := range data {
		csum ^= b & 0x0f
		csum ^= b >> 4
	}
	return csum
}
