// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/smartir/internal/entity"
	"github.com/Thermoquad/smartir/pkg/climate"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	commandTimeout = 30 * time.Second
	maxLogEntries  = 100
)

// Focus states
const (
	focusClimateList = iota
	focusTempInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// climateSource is the part of the hub the remote drives.
type climateSource interface {
	Entities() []*entity.Entity
}

// climateItem is one climate in the list
type climateItem struct {
	entity *entity.Entity
	state  entity.State
}

// Implement list.Item interface
func (c climateItem) Title() string { return c.entity.Name() }
func (c climateItem) Description() string {
	return describeState(c.entity.Device(), c.state)
}
func (c climateItem) FilterValue() string { return c.entity.ID() }

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// remoteModel is the Bubble Tea model for the remote TUI
type remoteModel struct {
	climates climateSource
	connInfo string

	climateList list.Model
	tempInput   textinput.Model
	focused     int

	eventLog []logEntry
	pending  int

	// UI state
	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type remoteTickMsg time.Time

// commandResultMsg reports a finished command.
type commandResultMsg struct {
	name  string
	label string
	err   error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialRemoteModel(climates climateSource, connInfo string) remoteModel {
	// Initialize text input for the target temperature
	ti := textinput.New()
	ti.Placeholder = "22"
	ti.CharLimit = 5
	ti.Width = 8

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	climateList := list.New([]list.Item{}, delegate, 40, 10)
	climateList.Title = "Climates"
	climateList.SetShowStatusBar(false)
	climateList.SetShowHelp(false)
	climateList.SetFilteringEnabled(false)

	m := remoteModel{
		climates:    climates,
		connInfo:    connInfo,
		climateList: climateList,
		tempInput:   ti,
		focused:     focusClimateList,
		eventLog:    make([]logEntry, 0),
		width:       100,
		height:      30,
	}
	m.refreshClimates()
	m.addLogEntry(fmt.Sprintf("Loaded %d climate(s)", len(m.climateList.Items())), false)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m remoteModel) Init() tea.Cmd {
	return remoteTickCmd()
}

func remoteTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return remoteTickMsg(t)
	})
}

func (m remoteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.climateList, _ = m.climateList.Update(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case remoteTickMsg:
		// sensors and the API change state behind our back
		m.refreshClimates()
		return m, remoteTickCmd()

	case commandResultMsg:
		m.pending--
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s: %s failed: %v", msg.name, msg.label, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("%s: %s", msg.name, msg.label), false)
		}
		m.refreshClimates()
	}

	var cmd tea.Cmd
	if m.focused == focusTempInput {
		m.tempInput, cmd = m.tempInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m remoteModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		return m.toggleFocus(), nil
	}

	if m.focused == focusTempInput {
		switch msg.String() {
		case "esc":
			return m.toggleFocus(), nil
		case "enter":
			return m.submitTemperature()
		}
		var cmd tea.Cmd
		m.tempInput, cmd = m.tempInput.Update(msg)
		return m, cmd
	}

	e, st, ok := m.selected()

	switch key := msg.String(); key {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k", "down", "j":
		m.climateList, _ = m.climateList.Update(msg)
		return m, nil

	case "m", "M":
		if !ok {
			break
		}
		mode := cycle(e.Device().HVACModes(), st.HVACMode, direction(key))
		return m.run(e, "mode "+mode, func(ctx context.Context) error { return e.SetHVACMode(ctx, mode) })

	case "f", "F":
		if !ok {
			break
		}
		fan := cycle(e.Device().FanModes, st.FanMode, direction(key))
		return m.run(e, "fan "+fan, func(ctx context.Context) error { return e.SetFanMode(ctx, fan) })

	case "s", "S":
		if !ok || !e.Device().SupportsSwing() {
			break
		}
		swing := cycle(e.Device().SwingModes, st.SwingMode, direction(key))
		return m.run(e, "swing "+swing, func(ctx context.Context) error { return e.SetSwingMode(ctx, swing) })

	case "+", "=", "-":
		if !ok {
			break
		}
		step := e.Device().Precision
		if step <= 0 {
			step = 1
		}
		if key == "-" {
			step = -step
		}
		t := st.TargetTemperature + step
		return m.run(e, "temperature "+climate.FormatTemperature(t), func(ctx context.Context) error {
			return e.SetTemperature(ctx, t, "")
		})

	case "o":
		if !ok {
			break
		}
		if st.HVACMode == climate.ModeOff {
			return m.run(e, "turn on", e.TurnOn)
		}
		return m.run(e, "turn off", e.TurnOff)

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if !ok {
			break
		}
		idx := int(key[0] - '1')
		toggles := e.Device().Toggles
		if idx >= len(toggles) {
			break
		}
		name := toggles[idx]
		on := !st.Toggles[name]
		return m.run(e, fmt.Sprintf("%s %s", name, onOff(on)), func(ctx context.Context) error {
			return e.SetToggle(ctx, name, on)
		})
	}

	return m, nil
}

func (m remoteModel) toggleFocus() remoteModel {
	if m.focused == focusClimateList {
		if _, st, ok := m.selected(); ok {
			m.tempInput.SetValue(climate.FormatTemperature(st.TargetTemperature))
		}
		m.focused = focusTempInput
		m.tempInput.Focus()
	} else {
		m.focused = focusClimateList
		m.tempInput.Blur()
	}
	return m
}

func (m remoteModel) submitTemperature() (tea.Model, tea.Cmd) {
	e, _, ok := m.selected()
	if !ok {
		return m, nil
	}

	value := strings.TrimSpace(m.tempInput.Value())
	t, err := strconv.ParseFloat(value, 64)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid temperature %q", value), true)
		return m, nil
	}

	m = m.toggleFocus()
	return m.run(e, "temperature "+climate.FormatTemperature(t), func(ctx context.Context) error {
		return e.SetTemperature(ctx, t, "")
	})
}

// run executes fn off the UI goroutine and reports back with a
// commandResultMsg.
func (m remoteModel) run(e *entity.Entity, label string, fn func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	m.pending++
	name := e.Name()
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandResultMsg{name: name, label: label, err: fn(ctx)}
	}
}

func (m remoteModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Title
	s.WriteString(titleStyle.Render("SmartIR Remote"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(m.connInfo))
	if m.pending > 0 {
		s.WriteString(" ")
		s.WriteString(warningStyle.Render(fmt.Sprintf("sending (%d)", m.pending)))
	}
	s.WriteString("\n\n")

	listBox := boxStyle
	panelBox := focusedBoxStyle
	if m.focused == focusClimateList {
		listBox = focusedBoxStyle
		panelBox = boxStyle
	}

	left := listBox.Render(m.climateList.View())
	right := panelBox.Render(m.renderControlPanel(labelStyle, valueStyle, headerStyle))
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	s.WriteString("\n")

	s.WriteString(m.renderEventLog(labelStyle, warningStyle, boxStyle))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("m/f/s mode/fan/swing  +/- temp  o on/off  1-9 toggles  tab edit temp  q quit"))
	return s.String()
}

func (m remoteModel) renderControlPanel(labelStyle, valueStyle, headerStyle lipgloss.Style) string {
	e, st, ok := m.selected()
	if !ok {
		return headerStyle.Render("No climate selected")
	}
	d := e.Device()

	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", label)), valueStyle.Render(value)))
	}

	s.WriteString(labelStyle.Render(strings.ToUpper(e.Name())))
	s.WriteString(headerStyle.Render(fmt.Sprintf("  %s %d", d.Manufacturer, d.Code)))
	s.WriteString("\n\n")

	row("Mode", st.HVACMode)
	if rng, ok := d.Range(st.HVACMode); ok || st.HVACMode == climate.ModeOff {
		target := climate.FormatTemperature(st.TargetTemperature)
		if ok {
			target += fmt.Sprintf("  (%s-%s)", climate.FormatTemperature(rng.Min), climate.FormatTemperature(rng.Max))
		}
		row("Target", target)
	}
	row("Fan", st.FanMode)
	if d.SupportsSwing() {
		row("Swing", st.SwingMode)
	}
	if st.CurrentTemperature != nil {
		row("Room", climate.FormatTemperature(*st.CurrentTemperature)+"°")
	}
	if st.CurrentHumidity != nil {
		row("Humidity", climate.FormatTemperature(*st.CurrentHumidity)+"%")
	}
	for i, name := range d.Toggles {
		mark := "[ ]"
		if st.Toggles[name] {
			mark = "[x]"
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n", headerStyle.Render(strconv.Itoa(i+1)), mark, name))
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Set temp "))
	s.WriteString(m.tempInput.View())
	return s.String()
}

func (m remoteModel) renderEventLog(labelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	for i := startIdx; i < len(m.eventLog); i++ {
		entry := m.eventLog[i]
		icon := "i"
		style := warningStyle
		if entry.isError {
			icon = "x"
			style = errorStyleLocal
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message))
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *remoteModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

func (m remoteModel) selected() (*entity.Entity, entity.State, bool) {
	item, ok := m.climateList.SelectedItem().(climateItem)
	if !ok {
		return nil, entity.State{}, false
	}
	return item.entity, item.entity.State(), true
}

func (m *remoteModel) refreshClimates() {
	entities := m.climates.Entities()
	items := make([]list.Item, len(entities))
	for i, e := range entities {
		items[i] = climateItem{entity: e, state: e.State()}
	}
	m.climateList.SetItems(items)
}

func (m *remoteModel) updateListSize() {
	listHeight := m.height - 16
	if listHeight < 5 {
		listHeight = 5
	}
	m.climateList.SetSize(40, listHeight)
}

// cycle returns the value delta steps away from cur in values, wrapping.
func cycle(values []string, cur string, delta int) string {
	if len(values) == 0 {
		return cur
	}
	idx := 0
	for i, v := range values {
		if v == cur {
			idx = i
			break
		}
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

// direction is -1 for the shifted key, 1 otherwise.
func direction(key string) int {
	if strings.ToUpper(key) == key {
		return -1
	}
	return 1
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
