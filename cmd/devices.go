// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/internal/devicedb"
	"github.com/Thermoquad/smartir/pkg/climate"
)

func newDevicesCmd(g *globalFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List known device codes",
		Long: `List every known device code: the built-in protocol encoders followed by
the SmartIR command tables found in <device_dir>/climate/<code>.json.

Definitions that fail to load are listed with their error instead of
aborting the listing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, _, err := g.load()
				if err != nil {
					return err
				}
				dir = cfg.DeviceDir
			}

			db := devicedb.New(dir)
			codes, err := db.Codes()
			if err != nil {
				return err
			}

			headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
			errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

			failed := make(map[int]bool)
			rows := make([][]string, 0, len(codes))
			for _, code := range codes {
				d, err := db.Lookup(code)
				if err != nil {
					failed[len(rows)] = true
					rows = append(rows, []string{strconv.Itoa(code), "", "", "", err.Error()})
					continue
				}
				rows = append(rows, deviceRow(d))
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
				Headers("CODE", "MANUFACTURER", "ENCODING", "CONTROLLER", "MODELS").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == table.HeaderRow:
						return headerStyle
					case failed[row] && col == 4:
						return errorStyle
					}
					return lipgloss.NewStyle()
				})

			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "device-dir", "", "Device definition directory (overrides device_dir)")
	return cmd
}

func deviceRow(d *climate.Device) []string {
	kind := d.CommandsEncoding
	if d.Encoder != nil {
		kind = "encoder"
	}
	models := strings.Join(d.SupportedModels, ", ")
	if len(d.SupportedModels) > 3 {
		models = fmt.Sprintf("%s (+%d)", strings.Join(d.SupportedModels[:3], ", "), len(d.SupportedModels)-3)
	}
	return []string{strconv.Itoa(d.Code), d.Manufacturer, kind, orDash(d.DefaultController), models}
}
