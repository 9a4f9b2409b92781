// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/pkg/climate"
)

// requestFlags are the climate command flags shared by encode and send.
type requestFlags struct {
	mode        string
	fan         string
	swing       string
	temperature float64
	toggles     []string
	action      string
}

func (r *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.mode, "mode", "m", "", "HVAC mode (off, auto, cool, heat, dry, fan_only)")
	cmd.Flags().StringVarP(&r.fan, "fan", "f", "", "Fan mode")
	cmd.Flags().StringVarP(&r.swing, "swing", "s", "", "Swing mode")
	cmd.Flags().Float64VarP(&r.temperature, "temp", "t", 0, "Target temperature")
	cmd.Flags().StringArrayVar(&r.toggles, "toggle", nil, "Feature toggle as name or name=on|off (repeatable)")
	cmd.Flags().StringVar(&r.action, "action", "", "One-shot action, e.g. toggle_brightness")
}

// parseToggles turns "name" and "name=value" entries into a toggle map.
func parseToggles(entries []string) (map[string]bool, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	toggles := make(map[string]bool, len(entries))
	for _, e := range entries {
		name, value, found := strings.Cut(e, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid toggle %q", e)
		}
		if !found {
			toggles[name] = true
			continue
		}
		on, err := parseSwitch(value)
		if err != nil {
			return nil, fmt.Errorf("invalid toggle %q: %w", e, err)
		}
		toggles[name] = on
	}
	return toggles, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// request builds a full climate request for d. Values left unset fall back to
// the device's first operation mode, first fan and swing mode, and the middle
// of the mode's temperature range.
func (r *requestFlags) request(cmd *cobra.Command, d *climate.Device) (climate.Request, error) {
	toggles, err := parseToggles(r.toggles)
	if err != nil {
		return climate.Request{}, err
	}

	req := climate.Request{
		HVACMode:  r.mode,
		FanMode:   r.fan,
		SwingMode: r.swing,
		Toggles:   toggles,
		Action:    r.action,
	}
	if req.HVACMode == "" {
		if modes := d.HVACModes(); len(modes) > 1 {
			req.HVACMode = modes[1]
		}
	}
	if req.FanMode == "" && len(d.FanModes) > 0 {
		req.FanMode = d.FanModes[0]
	}
	if req.SwingMode == "" && d.SupportsSwing() {
		req.SwingMode = d.SwingModes[0]
	}

	if cmd.Flags().Changed("temp") {
		req.Temperature = r.temperature
	} else if rng, ok := d.Range(req.HVACMode); ok {
		req.Temperature = math.Floor((rng.Min + rng.Max) / 2)
	}
	return req, nil
}
