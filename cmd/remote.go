// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newRemoteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remote",
		Short: "Interactive TUI remote for the configured climates",
		Long: `Control the configured climates from an interactive terminal UI.

The left panel lists every climate; the right panel shows the selected one and
accepts single-key commands:

  m / M      next / previous HVAC mode
  f / F      next / previous fan mode
  s / S      next / previous swing mode
  + / -      raise / lower the target temperature
  o          turn on or off
  1-9        flip the numbered feature toggle
  tab        edit the target temperature, enter to send

Every send and error is listed in the event log. Sensor readings follow Home
Assistant when it is configured. Press q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, err := openSession(ctx, g)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(s.hub.Entities()) == 0 {
				return fmt.Errorf("no climates configured")
			}
			s.track(ctx)

			m := initialRemoteModel(s.hub, connInfo(s))

			// Create TUI program with alt screen and mouse support
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("TUI error: %v", err)
			}
			return nil
		},
	}
}

func connInfo(s *session) string {
	switch {
	case s.rt.HASS != nil && s.cfg.MQTT.Broker != "":
		return fmt.Sprintf("Home Assistant %s, MQTT %s", s.rt.HASS.HAVersion(), s.cfg.MQTT.Broker)
	case s.rt.HASS != nil:
		return fmt.Sprintf("Home Assistant %s", s.rt.HASS.HAVersion())
	case s.cfg.MQTT.Broker != "":
		return fmt.Sprintf("MQTT %s", s.cfg.MQTT.Broker)
	}
	return "direct transports only"
}
