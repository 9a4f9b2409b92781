// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Thermoquad/smartir/internal/entity"
	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/controller"
)

type countingSender struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (s *countingSender) Send(ctx context.Context, cmd controller.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return s.err
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

type staticClimates []*entity.Entity

func (c staticClimates) Entities() []*entity.Entity { return c }

func newTestRemote(t *testing.T, sender *countingSender) (remoteModel, *entity.Entity) {
	t.Helper()
	office, err := entity.New(entity.Options{ID: "office", Name: "Office", Device: climate.Sharp, Sender: sender, Policy: entity.PolicySurface})
	if err != nil {
		t.Fatal(err)
	}
	hall, err := entity.New(entity.Options{ID: "hall", Name: "Hall", Device: climate.Toshiba, Sender: sender})
	if err != nil {
		t.Fatal(err)
	}
	return initialRemoteModel(staticClimates{office, hall}, "test"), office
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// press feeds key to the model and runs the command it returns, feeding
// a commandResultMsg back.
func press(t *testing.T, m remoteModel, key string) remoteModel {
	t.Helper()
	next, cmd := m.Update(keyMsg(key))
	m = next.(remoteModel)
	if cmd == nil {
		return m
	}
	if res, ok := cmd().(commandResultMsg); ok {
		next, _ = m.Update(res)
		m = next.(remoteModel)
	}
	return m
}

func lastLog(m remoteModel) logEntry {
	return m.eventLog[len(m.eventLog)-1]
}

func TestRemote_Commands(t *testing.T) {
	sender := &countingSender{}
	m, office := newTestRemote(t, sender)

	m = press(t, m, "m")
	if st := office.State(); st.HVACMode != climate.ModeCool {
		t.Fatalf("HVACMode = %q, want cool", st.HVACMode)
	}
	if e := lastLog(m); e.isError || e.message != "Office: mode cool" {
		t.Errorf("log = %+v", e)
	}

	m = press(t, m, "+")
	if st := office.State(); st.TargetTemperature != 26 {
		t.Errorf("TargetTemperature = %v, want 26", st.TargetTemperature)
	}

	m = press(t, m, "f")
	m = press(t, m, "s")
	st := office.State()
	if st.FanMode != "low" || st.SwingMode != "auto" {
		t.Errorf("fan/swing = %q/%q, want low/auto", st.FanMode, st.SwingMode)
	}

	m = press(t, m, "3")
	if !office.State().Toggles["ionizer"] {
		t.Error("ionizer toggle not set")
	}

	m = press(t, m, "o")
	if st := office.State(); st.HVACMode != climate.ModeOff {
		t.Errorf("HVACMode = %q, want off", st.HVACMode)
	}

	if got := sender.count(); got != 6 {
		t.Errorf("sent %d commands, want 6", got)
	}
	if m.pending != 0 {
		t.Errorf("pending = %d", m.pending)
	}
}

func TestRemote_CycleBackwards(t *testing.T) {
	m, office := newTestRemote(t, &countingSender{})
	press(t, m, "M")
	if st := office.State(); st.HVACMode != climate.ModeFanOnly {
		t.Errorf("HVACMode = %q, want fan_only", st.HVACMode)
	}
}

func TestRemote_TemperatureInput(t *testing.T) {
	sender := &countingSender{}
	m, office := newTestRemote(t, sender)
	m = press(t, m, "m")

	m = press(t, m, "tab")
	if m.focused != focusTempInput {
		t.Fatal("tab did not focus the temperature input")
	}
	m.tempInput.SetValue("")
	for _, r := range "21" {
		// the cursor blink command is not run
		next, _ := m.Update(keyMsg(string(r)))
		m = next.(remoteModel)
	}
	m = press(t, m, "enter")

	if st := office.State(); st.TargetTemperature != 21 {
		t.Errorf("TargetTemperature = %v, want 21", st.TargetTemperature)
	}
	if m.focused != focusClimateList {
		t.Error("enter did not return focus to the list")
	}
	// typed digits must not flip toggles
	if office.State().Toggles["self_cleaning"] {
		t.Error("digit reached the toggle handler")
	}
}

func TestRemote_Errors(t *testing.T) {
	sender := &countingSender{}
	m, _ := newTestRemote(t, sender)
	m = press(t, m, "m")

	for i := 0; i < 8; i++ {
		m = press(t, m, "+")
	}
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "out of range") {
		t.Errorf("log = %+v, want range error", e)
	}

	sender.err = errors.New("blaster offline")
	m = press(t, m, "f")
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "blaster offline") {
		t.Errorf("log = %+v, want transport error", e)
	}

	m = press(t, m, "tab")
	m.tempInput.SetValue("warm")
	m = press(t, m, "enter")
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "Invalid temperature") {
		t.Errorf("log = %+v", e)
	}
}

func TestRemote_SelectsClimate(t *testing.T) {
	sender := &countingSender{}
	m, office := newTestRemote(t, sender)

	m = press(t, m, "down")
	m = press(t, m, "m")
	if office.State().HVACMode != climate.ModeOff {
		t.Error("command went to the first climate")
	}
	e, st, ok := m.selected()
	if !ok || e.ID() != "hall" || st.HVACMode != climate.ModeAuto {
		t.Errorf("selected %v %q", ok, st.HVACMode)
	}

	// Toshiba has no swing modes
	before := sender.count()
	press(t, m, "s")
	if sender.count() != before {
		t.Error("swing sent for a device without swing modes")
	}
}

func TestRemote_View(t *testing.T) {
	m, _ := newTestRemote(t, &countingSender{})
	m = press(t, m, "m")

	view := m.View()
	for _, want := range []string{"SmartIR Remote", "Office", "Hall", "OFFICE", "Sharp 19902", "cool", "ionizer", "EVENTS", "mode cool"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	next, cmd := m.Update(keyMsg("q"))
	if cmd == nil || !next.(remoteModel).quitting {
		t.Error("q did not quit")
	}
}

func TestCycle(t *testing.T) {
	values := []string{"a", "b", "c"}
	tests := []struct {
		cur   string
		delta int
		want  string
	}{
		{"a", 1, "b"},
		{"c", 1, "a"},
		{"a", -1, "c"},
		{"missing", 1, "b"},
	}
	for _, tt := range tests {
		if got := cycle(values, tt.cur, tt.delta); got != tt.want {
			t.Errorf("cycle(%q, %d) = %q, want %q", tt.cur, tt.delta, got, tt.want)
		}
	}
	if got := cycle(nil, "x", 1); got != "x" {
		t.Errorf("cycle(nil) = %q", got)
	}
}
