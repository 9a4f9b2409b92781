// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/internal/entity"
	"github.com/Thermoquad/smartir/pkg/climate"
)

type sendOptions struct {
	g   *globalFlags
	req requestFlags
	on  bool
	off bool
}

func newSendCmd(g *globalFlags) *cobra.Command {
	o := &sendOptions{g: g}

	cmd := &cobra.Command{
		Use:   "send <climate>",
		Short: "Send commands to a configured climate",
		Long: `Apply one or more changes to a configured climate and send them.

Changes are applied in a fixed order: mode, fan, swing, temperature, toggles,
action, then --on. Each change is sent on its own, exactly as a Home
Assistant service call would be. Fan and swing changes made while the
climate is off are remembered but not sent. A temperature set while off is
remembered on devices with one temperature range, and rejected on devices
whose ranges are per mode. --off is exclusive.

The stored state is loaded first and saved afterwards, so consecutive
invocations continue where the previous one stopped.

Examples:
  smartir send living_room --mode cool --temp 23
  smartir send bedroom --toggle quiet=off
  smartir send bedroom --off`,
		Args: cobra.ExactArgs(1),
		RunE: o.run,
	}

	o.req.register(cmd)
	cmd.Flags().BoolVar(&o.on, "on", false, "Turn on with the last operation mode")
	cmd.Flags().BoolVar(&o.off, "off", false, "Turn off")
	cmd.MarkFlagsMutuallyExclusive("on", "off")
	cmd.MarkFlagsMutuallyExclusive("mode", "off")
	return cmd
}

func (o *sendOptions) run(cmd *cobra.Command, args []string) error {
	toggles, err := parseToggles(o.req.toggles)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, o.g)
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.hub.Entity(args[0])
	if err != nil {
		return err
	}

	steps := o.steps(cmd, toggles)
	if len(steps) == 0 {
		return fmt.Errorf("nothing to send; see smartir send --help")
	}
	for _, step := range steps {
		if err := step.run(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		s.log.Debugw("Sent", "entity", e.ID(), "step", step.name)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", e.ID(), describeState(e.Device(), e.State()))
	return nil
}

type sendStep struct {
	name string
	run  func(ctx context.Context, e *entity.Entity) error
}

func (o *sendOptions) steps(cmd *cobra.Command, toggles map[string]bool) []sendStep {
	if o.off {
		return []sendStep{{"off", func(ctx context.Context, e *entity.Entity) error { return e.TurnOff(ctx) }}}
	}

	var steps []sendStep
	if o.req.mode != "" {
		mode := o.req.mode
		steps = append(steps, sendStep{"mode", func(ctx context.Context, e *entity.Entity) error {
			return e.SetHVACMode(ctx, mode)
		}})
	}
	if o.req.fan != "" {
		fan := o.req.fan
		steps = append(steps, sendStep{"fan", func(ctx context.Context, e *entity.Entity) error {
			return e.SetFanMode(ctx, fan)
		}})
	}
	if o.req.swing != "" {
		swing := o.req.swing
		steps = append(steps, sendStep{"swing", func(ctx context.Context, e *entity.Entity) error {
			return e.SetSwingMode(ctx, swing)
		}})
	}
	if cmd.Flags().Changed("temp") {
		t := o.req.temperature
		steps = append(steps, sendStep{"temperature", func(ctx context.Context, e *entity.Entity) error {
			return e.SetTemperature(ctx, t, "")
		}})
	}
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		on := toggles[name]
		steps = append(steps, sendStep{"toggle " + name, func(ctx context.Context, e *entity.Entity) error {
			return e.SetToggle(ctx, name, on)
		}})
	}
	if o.req.action != "" {
		action := o.req.action
		steps = append(steps, sendStep{"action", func(ctx context.Context, e *entity.Entity) error {
			return e.RunAction(ctx, action)
		}})
	}
	if o.on {
		steps = append(steps, sendStep{"on", func(ctx context.Context, e *entity.Entity) error { return e.TurnOn(ctx) }})
	}
	return steps
}

// describeState renders a one-line summary of a climate state.
func describeState(d *climate.Device, st entity.State) string {
	var b strings.Builder
	b.WriteString(st.HVACMode)
	if st.HVACMode != climate.ModeOff {
		if _, ok := d.Range(st.HVACMode); ok {
			fmt.Fprintf(&b, " %s°", climate.FormatTemperature(st.TargetTemperature))
		}
	}
	fmt.Fprintf(&b, " fan=%s", st.FanMode)
	if d.SupportsSwing() {
		fmt.Fprintf(&b, " swing=%s", st.SwingMode)
	}
	for _, name := range d.Toggles {
		if st.Toggles[name] {
			fmt.Fprintf(&b, " +%s", name)
		}
	}
	if st.CurrentTemperature != nil {
		fmt.Fprintf(&b, " (room %s°", climate.FormatTemperature(*st.CurrentTemperature))
		if st.CurrentHumidity != nil {
			fmt.Fprintf(&b, ", %s%%", climate.FormatTemperature(*st.CurrentHumidity))
		}
		b.WriteString(")")
	}
	return b.String()
}
