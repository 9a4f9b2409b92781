// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package entity

// StateOn is the mode reported when a power sensor sees the unit turned on
// by its own remote and no previous operation is known.
const StateOn = "on"

// State is the mutable command state of a climate entity.
type State struct {
	HVACMode           string             `json:"hvac_mode"`
	FanMode            string             `json:"fan_mode"`
	SwingMode          string             `json:"swing_mode,omitempty"`
	TargetTemperature  float64            `json:"temperature"`
	TargetTemperatures map[string]float64 `json:"target_temperatures,omitempty"`
	LastOnOperation    string             `json:"last_on_operation,omitempty"`
	Toggles            map[string]bool    `json:"toggles,omitempty"`
	CurrentTemperature *float64           `json:"current_temperature,omitempty"`
	CurrentHumidity    *float64           `json:"current_humidity,omitempty"`
	OnByRemote         bool               `json:"on_by_remote"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	if s.TargetTemperatures != nil {
		c.TargetTemperatures = make(map[string]float64, len(s.TargetTemperatures))
		for k, v := range s.TargetTemperatures {
			c.TargetTemperatures[k] = v
		}
	}
	if s.Toggles != nil {
		c.Toggles = make(map[string]bool, len(s.Toggles))
		for k, v := range s.Toggles {
			c.Toggles[k] = v
		}
	}
	if s.CurrentTemperature != nil {
		v := *s.CurrentTemperature
		c.CurrentTemperature = &v
	}
	if s.CurrentHumidity != nil {
		v := *s.CurrentHumidity
		c.CurrentHumidity = &v
	}
	return c
}
