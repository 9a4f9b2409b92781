// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package entity implements the climate entity state machine.
//
// An Entity owns the command state of one appliance. Every change that must
// reach the appliance goes through a send gate so that at most one transport
// operation is in flight per entity. Sends work on a snapshot of the state
// taken after the gate is acquired.
package entity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Thermoquad/smartir/internal/logger"
	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/controller"
)

// FailurePolicy decides what happens to transport errors.
type FailurePolicy string

// Failure policies
const (
	// PolicyLog logs transport errors and reports success.
	PolicyLog FailurePolicy = "log"
	// PolicySurface returns transport errors to the caller.
	PolicySurface FailurePolicy = "surface"
)

// DefaultSendTimeout bounds a send when Options.SendTimeout is zero.
const DefaultSendTimeout = 10 * time.Second

// Errors
var (
	ErrTemperatureRange = errors.New("temperature out of range")
	ErrNoTemperature    = errors.New("mode takes no temperature")
	ErrNoAction         = errors.New("device cannot run actions")
)

// Sender delivers commands to the appliance. controller.Controller
// implements it.
type Sender interface {
	Send(ctx context.Context, cmd controller.Command) error
}

// Options configures an entity.
type Options struct {
	ID     string
	Name   string
	Device *climate.Device
	Sender Sender

	// Delay separates the on command from the state command on
	// command-table devices.
	Delay  time.Duration
	Policy FailurePolicy
	// SendTimeout bounds one send, delay included.
	SendTimeout time.Duration

	// PowerSensorRestoreState restores the last operation when the power
	// sensor reports the unit was turned on by its own remote.
	PowerSensorRestoreState bool

	// OnChange is called with a state snapshot after every change.
	OnChange func(id string, s State)
	// OnSend is called after every send attempt with the snapshot sent
	// and the transport or encode error.
	OnSend func(id string, s State, err error)

	Logger *logger.Logger
}

// Entity is one climate appliance.
type Entity struct {
	id             string
	name           string
	device         *climate.Device
	sender         Sender
	delay          time.Duration
	timeout        time.Duration
	policy         FailurePolicy
	restoreOnPower bool
	onChange       func(string, State)
	onSend         func(string, State, error)
	log            *logger.Logger

	// gate serializes sends
	gate sync.Mutex

	mu    sync.Mutex
	state State
}

// New creates an entity in its initial state: off, first fan mode, first
// swing mode, and mid-range targets per mode.
func New(opts Options) (*Entity, error) {
	if opts.Device == nil {
		return nil, fmt.Errorf("entity %q: no device", opts.ID)
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("entity %q: no sender", opts.ID)
	}
	if len(opts.Device.FanModes) == 0 {
		return nil, fmt.Errorf("entity %q: device %d declares no fan modes", opts.ID, opts.Device.Code)
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLog
	}
	if opts.Policy != PolicyLog && opts.Policy != PolicySurface {
		return nil, fmt.Errorf("entity %q: unknown failure policy %q", opts.ID, opts.Policy)
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	e := &Entity{
		id:             opts.ID,
		name:           opts.Name,
		device:         opts.Device,
		sender:         opts.Sender,
		delay:          opts.Delay,
		timeout:        opts.SendTimeout,
		policy:         opts.Policy,
		restoreOnPower: opts.PowerSensorRestoreState,
		onChange:       opts.OnChange,
		onSend:         opts.OnSend,
		log:            opts.Logger,
	}
	e.state = initialState(opts.Device)
	return e, nil
}

func initialState(d *climate.Device) State {
	s := State{
		HVACMode: climate.ModeOff,
		FanMode:  d.FanModes[0],
	}
	if d.SupportsSwing() {
		s.SwingMode = d.SwingModes[0]
	}
	if d.PerModeRange() {
		s.TargetTemperatures = make(map[string]float64, len(d.ModeTemperatures))
		for _, r := range d.ModeTemperatures {
			s.TargetTemperatures[r.Mode] = math.Floor((r.Min + r.Max) / 2)
		}
		if len(d.ModeTemperatures) > 0 {
			s.TargetTemperature = s.TargetTemperatures[d.ModeTemperatures[0].Mode]
		}
	} else {
		s.TargetTemperature = d.Temperature.Min
	}
	if len(d.Toggles) > 0 {
		s.Toggles = make(map[string]bool, len(d.Toggles))
		for _, t := range d.Toggles {
			s.Toggles[t] = false
		}
	}
	return s
}

func (e *Entity) ID() string              { return e.id }
func (e *Entity) Name() string            { return e.name }
func (e *Entity) Device() *climate.Device { return e.device }

// State returns a snapshot of the current state.
func (e *Entity) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Restore applies a persisted state. Fields naming values the device does
// not declare are ignored.
func (e *Entity) Restore(s State) {
	e.mu.Lock()
	d := e.device
	if s.HVACMode == climate.ModeOff || s.HVACMode == StateOn || contains(d.OperationModes, s.HVACMode) {
		e.state.HVACMode = s.HVACMode
	}
	if contains(d.FanModes, s.FanMode) {
		e.state.FanMode = s.FanMode
	}
	if d.SupportsSwing() && contains(d.SwingModes, s.SwingMode) {
		e.state.SwingMode = s.SwingMode
	}
	if s.TargetTemperature != 0 {
		e.state.TargetTemperature = s.TargetTemperature
	}
	if contains(d.OperationModes, s.LastOnOperation) {
		e.state.LastOnOperation = s.LastOnOperation
	}
	if d.PerModeRange() {
		for mode, t := range s.TargetTemperatures {
			if _, ok := e.state.TargetTemperatures[mode]; ok {
				e.state.TargetTemperatures[mode] = t
			}
		}
	}
	for name, on := range s.Toggles {
		if _, ok := e.state.Toggles[name]; ok {
			e.state.Toggles[name] = on
		}
	}
	e.mu.Unlock()

	e.log.Debugw("Restored state", "entity", e.id, "hvac_mode", s.HVACMode)
}

// Bounds returns the temperature range of the current mode. Per-mode devices
// report zero bounds for modes that take no temperature.
func (e *Entity) Bounds() climate.TemperatureRange {
	e.mu.Lock()
	mode := e.state.HVACMode
	e.mu.Unlock()
	r, _ := e.device.Range(mode)
	return r
}

// round applies the device precision.
func (e *Entity) round(t float64) float64 {
	if e.device.Precision == 1 {
		return math.Round(t)
	}
	return math.Round(t*10) / 10
}

// SetTemperature sets the target temperature, and the mode when hvacMode is
// not empty. A command is sent unless the entity stays off.
func (e *Entity) SetTemperature(ctx context.Context, temperature float64, hvacMode string) error {
	if hvacMode != "" && hvacMode != climate.ModeOff && !contains(e.device.OperationModes, hvacMode) {
		return &climate.UnsupportedValueError{Field: "hvac mode", Value: hvacMode}
	}

	e.mu.Lock()
	want := hvacMode
	if want == "" {
		want = e.state.HVACMode
	}
	r, ok := e.device.Range(want)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoTemperature, want)
	}
	if !r.Contains(temperature) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %g not in [%g, %g] for mode %s", ErrTemperatureRange, temperature, r.Min, r.Max, want)
	}

	t := e.round(temperature)
	e.state.TargetTemperature = t
	if e.device.PerModeRange() {
		e.state.TargetTemperatures[want] = t
	}
	off := e.state.HVACMode == climate.ModeOff
	e.mu.Unlock()

	if hvacMode != "" {
		return e.SetHVACMode(ctx, hvacMode)
	}
	var err error
	if !off {
		err = e.send(ctx, "")
	}
	e.changed()
	return err
}

// SetHVACMode switches the operation mode and sends the command.
func (e *Entity) SetHVACMode(ctx context.Context, mode string) error {
	if mode != climate.ModeOff && !contains(e.device.OperationModes, mode) {
		return &climate.UnsupportedValueError{Field: "hvac mode", Value: mode}
	}

	e.mu.Lock()
	if e.device.PerModeRange() && mode != e.state.HVACMode {
		if t, ok := e.state.TargetTemperatures[mode]; ok {
			e.state.TargetTemperature = t
		}
	}
	e.state.HVACMode = mode
	if mode != climate.ModeOff {
		e.state.LastOnOperation = mode
	}
	e.mu.Unlock()

	err := e.send(ctx, "")
	e.changed()
	return err
}

// SetFanMode sets the fan mode. A command is sent unless the entity is off.
func (e *Entity) SetFanMode(ctx context.Context, fan string) error {
	if !contains(e.device.FanModes, fan) {
		return &climate.UnsupportedValueError{Field: "fan mode", Value: fan}
	}
	return e.update(ctx, func(s *State) { s.FanMode = fan })
}

// SetSwingMode sets the swing mode. A command is sent unless the entity is off.
func (e *Entity) SetSwingMode(ctx context.Context, swing string) error {
	if !e.device.SupportsSwing() || !contains(e.device.SwingModes, swing) {
		return &climate.UnsupportedValueError{Field: "swing mode", Value: swing}
	}
	return e.update(ctx, func(s *State) { s.SwingMode = swing })
}

func (e *Entity) update(ctx context.Context, apply func(s *State)) error {
	e.mu.Lock()
	apply(&e.state)
	off := e.state.HVACMode == climate.ModeOff
	e.mu.Unlock()

	var err error
	if !off {
		err = e.send(ctx, "")
	}
	e.changed()
	return err
}

// SetToggle switches a feature toggle and sends the command, even when off.
func (e *Entity) SetToggle(ctx context.Context, name string, on bool) error {
	if !contains(e.device.Toggles, name) {
		return &climate.UnsupportedValueError{Field: "toggle", Value: name}
	}

	e.mu.Lock()
	e.state.Toggles[name] = on
	e.mu.Unlock()

	err := e.send(ctx, "")
	e.changed()
	return err
}

// RunAction sends the current state together with a one-shot action.
func (e *Entity) RunAction(ctx context.Context, action string) error {
	if e.device.Encoder == nil {
		return fmt.Errorf("%w: device %d", ErrNoAction, e.device.Code)
	}
	if !contains(e.device.Actions, action) {
		return &climate.UnsupportedValueError{Field: "action", Value: action}
	}
	return e.send(ctx, action)
}

// TurnOn restores the last operation, or the first declared mode.
func (e *Entity) TurnOn(ctx context.Context) error {
	e.mu.Lock()
	mode := e.state.LastOnOperation
	e.mu.Unlock()

	if mode == "" {
		modes := e.device.HVACModes()
		if len(modes) < 2 {
			return fmt.Errorf("entity %q: device declares no operation modes", e.id)
		}
		mode = modes[1]
	}
	return e.SetHVACMode(ctx, mode)
}

// TurnOff switches the entity off.
func (e *Entity) TurnOff(ctx context.Context) error {
	return e.SetHVACMode(ctx, climate.ModeOff)
}

// UpdateTemperature records a temperature sensor reading. Unknown and
// unavailable states are ignored.
func (e *Entity) UpdateTemperature(state string) error {
	return e.updateSensor(state, func(s *State, v float64) { s.CurrentTemperature = &v })
}

// UpdateHumidity records a humidity sensor reading.
func (e *Entity) UpdateHumidity(state string) error {
	return e.updateSensor(state, func(s *State, v float64) { s.CurrentHumidity = &v })
}

func (e *Entity) updateSensor(state string, apply func(s *State, v float64)) error {
	if state == "" || state == "unknown" || state == "unavailable" {
		return nil
	}
	v, err := strconv.ParseFloat(state, 64)
	if err != nil {
		return fmt.Errorf("entity %q: invalid sensor state %q: %w", e.id, state, err)
	}
	e.mu.Lock()
	apply(&e.state, v)
	e.mu.Unlock()
	e.changed()
	return nil
}

// PowerChanged tracks the power sensor. oldState is empty when unknown; an
// empty newState means the sensor was removed. Nothing is sent.
func (e *Entity) PowerChanged(oldState, newState string) {
	if newState == "" || (oldState != "" && oldState == newState) {
		return
	}

	e.mu.Lock()
	changed := false
	switch newState {
	case "on":
		if e.state.HVACMode == climate.ModeOff {
			e.state.OnByRemote = true
			if e.restoreOnPower && e.state.LastOnOperation != "" {
				e.state.HVACMode = e.state.LastOnOperation
			} else {
				e.state.HVACMode = StateOn
			}
			changed = true
		}
	case "off":
		e.state.OnByRemote = false
		e.state.HVACMode = climate.ModeOff
		changed = true
	}
	mode := e.state.HVACMode
	e.mu.Unlock()

	if changed {
		e.log.Infow("Power sensor changed", "entity", e.id, "power", newState, "hvac_mode", mode)
		e.changed()
	}
}

func (e *Entity) changed() {
	if e.onChange != nil {
		e.onChange(e.id, e.State())
	}
}

// send passes the gate, snapshots the state and transmits it. The caller's
// cancellation does not interrupt a send once it holds the gate; the send
// timeout does.
func (e *Entity) send(ctx context.Context, action string) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	e.mu.Lock()
	e.state.OnByRemote = false
	snap := e.state.Clone()
	e.mu.Unlock()

	err := e.transmit(ctx, snap, action)
	if e.onSend != nil {
		e.onSend(e.id, snap, err)
	}
	if err == nil {
		e.log.Debugw("Command sent", "entity", e.id, "hvac_mode", snap.HVACMode,
			"fan_mode", snap.FanMode, "temperature", snap.TargetTemperature)
		return nil
	}

	var sendErr *sendError
	if !errors.As(err, &sendErr) {
		e.log.Errorw("Failed to build command", "entity", e.id, "error", err)
		return err
	}
	e.log.Errorw("Failed to send command", "entity", e.id, "error", sendErr.err)
	if e.policy == PolicySurface {
		return sendErr.err
	}
	return nil
}

// sendError marks errors raised by the transport, as opposed to encoding.
type sendError struct{ err error }

func (e *sendError) Error() string { return e.err.Error() }
func (e *sendError) Unwrap() error { return e.err }

func (e *Entity) deliver(ctx context.Context, cmd controller.Command) error {
	err := e.sender.Send(ctx, cmd)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, controller.ErrTransport) {
		err = &controller.TransportError{Controller: e.id, Op: "send", Err: err}
	}
	return &sendError{err: err}
}

func (e *Entity) transmit(ctx context.Context, s State, action string) error {
	if e.device.Encoder != nil {
		req := climate.Request{
			HVACMode:    s.HVACMode,
			FanMode:     s.FanMode,
			Temperature: s.TargetTemperature,
			Toggles:     s.Toggles,
			Action:      action,
		}
		if e.device.SupportsSwing() {
			req.SwingMode = s.SwingMode
		}
		g, err := climate.Encode(e.device, req)
		if err != nil {
			return err
		}
		return e.deliver(ctx, controller.Generic(g))
	}

	table := e.device.Commands
	if s.HVACMode == climate.ModeOff {
		off, ok := table.Off()
		if !ok {
			return fmt.Errorf("%w: off", climate.ErrNoCommand)
		}
		return e.deliver(ctx, controller.Text(off...))
	}

	keys := []string{s.HVACMode, s.FanMode}
	if e.device.SupportsSwing() {
		keys = append(keys, s.SwingMode)
	}
	keys = append(keys, climate.FormatTemperature(s.TargetTemperature))
	payloads, err := table.Lookup(keys...)
	if err != nil {
		return err
	}

	if on, ok := table.On(); ok {
		if err := e.deliver(ctx, controller.Text(on...)); err != nil {
			return err
		}
		timer := time.NewTimer(e.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return &sendError{err: &controller.TransportError{Controller: e.id, Op: "delay", Err: ctx.Err()}}
		}
	}
	return e.deliver(ctx, controller.Text(payloads...))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
