// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// definitionFile mirrors the SmartIR climate device JSON layout.
type definitionFile struct {
	Manufacturer      string          `json:"manufacturer"`
	SupportedModels   []string        `json:"supportedModels"`
	CommandsEncoding  string          `json:"commandsEncoding"`
	DefaultController string          `json:"defaultController"`
	MinTemperature    json.RawMessage `json:"minTemperature"`
	MaxTemperature    json.RawMessage `json:"maxTemperature"`
	Precision         float64         `json:"precision"`
	OperationModes    []string        `json:"operationModes"`
	FanModes          []string        `json:"fanModes"`
	SwingModes        []string        `json:"swingModes"`
	Toggles           []string        `json:"toggles"`
	Actions           []string        `json:"actions"`
	Commands          *CommandTable   `json:"commands"`
}

// DecodeDefinition reads a SmartIR climate device file. The returned device
// is driven by its command table.
func DecodeDefinition(code int, r io.Reader) (*Device, error) {
	var f definitionFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode device %d: %w", code, err)
	}
	if f.Commands == nil {
		return nil, fmt.Errorf("device %d: missing commands", code)
	}
	if len(f.FanModes) == 0 {
		return nil, fmt.Errorf("device %d: missing fanModes", code)
	}

	d := &Device{
		Code:              code,
		Manufacturer:      f.Manufacturer,
		SupportedModels:   f.SupportedModels,
		CommandsEncoding:  f.CommandsEncoding,
		DefaultController: f.DefaultController,
		Precision:         f.Precision,
		OperationModes:    f.OperationModes,
		FanModes:          f.FanModes,
		SwingModes:        f.SwingModes,
		Toggles:           f.Toggles,
		Actions:           f.Actions,
		Commands:          f.Commands,
	}
	if d.Precision == 0 {
		d.Precision = 1
	}

	if err := decodeTemperatures(d, f.MinTemperature, f.MaxTemperature); err != nil {
		return nil, fmt.Errorf("device %d: %w", code, err)
	}
	return d, nil
}

// decodeTemperatures accepts either two numbers or two objects keyed by mode.
func decodeTemperatures(d *Device, minRaw, maxRaw json.RawMessage) error {
	var lo, hi float64
	if json.Unmarshal(minRaw, &lo) == nil {
		if err := json.Unmarshal(maxRaw, &hi); err != nil {
			return fmt.Errorf("maxTemperature must be a number when minTemperature is: %w", err)
		}
		d.Temperature = &TemperatureRange{Min: lo, Max: hi}
		return nil
	}

	keys, mins, err := decodeOrderedNumbers(minRaw)
	if err != nil {
		return fmt.Errorf("minTemperature: %w", err)
	}
	var maxs map[string]float64
	if err := json.Unmarshal(maxRaw, &maxs); err != nil {
		return fmt.Errorf("maxTemperature: %w", err)
	}
	for _, k := range keys {
		hi, ok := maxs[k]
		if !ok {
			return fmt.Errorf("maxTemperature missing mode %q", k)
		}
		d.ModeTemperatures = append(d.ModeTemperatures, ModeRange{
			Mode:             k,
			TemperatureRange: TemperatureRange{Min: mins[k], Max: hi},
		})
	}
	return nil
}

// decodeOrderedNumbers decodes a flat JSON object of numbers keeping key order.
func decodeOrderedNumbers(raw json.RawMessage) ([]string, map[string]float64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected number or object")
	}

	var keys []string
	values := make(map[string]float64)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("mode %q: %w", key, err)
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = v
	}
	return keys, values, nil
}

// CommandTable is a learned command tree: off, optional on, and
// mode → fan → [swing →] temperature leaves. A leaf holds one or more
// encoded commands.
type CommandTable struct {
	root *commandNode
}

type commandNode struct {
	leaf     []string
	children map[string]*commandNode
}

// UnmarshalJSON implements json.Unmarshaler
func (t *CommandTable) UnmarshalJSON(b []byte) error {
	var n commandNode
	if err := n.UnmarshalJSON(b); err != nil {
		return err
	}
	if n.children == nil {
		return fmt.Errorf("commands must be an object")
	}
	t.root = &n
	return nil
}

func (n *commandNode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		n.leaf = []string{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		n.leaf = list
		return nil
	}
	var children map[string]*commandNode
	if err := json.Unmarshal(b, &children); err != nil {
		return fmt.Errorf("command entry must be a string, list or object: %w", err)
	}
	n.children = children
	return nil
}

// Off returns the power-off command.
func (t *CommandTable) Off() ([]string, bool) {
	return t.leafAt("off")
}

// On returns the power-on priming command, if the device has one.
func (t *CommandTable) On() ([]string, bool) {
	return t.leafAt("on")
}

func (t *CommandTable) leafAt(key string) ([]string, bool) {
	if t == nil || t.root == nil {
		return nil, false
	}
	n, ok := t.root.children[key]
	if !ok || n == nil || n.leaf == nil {
		return nil, false
	}
	return n.leaf, true
}

// Lookup walks the table along keys and returns the leaf reached.
func (t *CommandTable) Lookup(keys ...string) ([]string, error) {
	if t == nil || t.root == nil {
		return nil, ErrNoCommand
	}
	n := t.root
	for _, k := range keys {
		next, ok := n.children[k]
		if !ok || next == nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCommand, keys)
		}
		n = next
	}
	if n.leaf == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCommand, keys)
	}
	return n.leaf, nil
}

// FormatTemperature renders a temperature the way command table keys do:
// shortest representation, no trailing zeros.
func FormatTemperature(t float64) string {
	return strconv.FormatFloat(t, 'g', -1, 64)
}
