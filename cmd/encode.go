// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/internal/devicedb"
	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/ircode"
)

type encodeOptions struct {
	g        *globalFlags
	req      requestFlags
	encoding string
	dir      string
}

func newEncodeCmd(g *globalFlags) *cobra.Command {
	o := &encodeOptions{g: g}

	cmd := &cobra.Command{
		Use:   "encode <device-code>",
		Short: "Encode a climate command without sending it",
		Long: `Encode a climate command for a device and print the result.

Devices with a protocol encoder print the protocol, its timing parameters,
every frame in hex and the pulse train in the chosen encoding. Devices driven
by a learned command table print the table entry the command selects.

Unset flags default to the device's first operation mode, fan and swing mode,
and the middle of the mode's temperature range.

Examples:
  smartir encode 11260 --mode cool --fan high --temp 24
  smartir encode 19902 --mode heat --toggle ionizer --encoding Base64
  smartir encode 1180 --mode off`,
		Args: cobra.ExactArgs(1),
		RunE: o.run,
	}

	o.req.register(cmd)
	cmd.Flags().StringVarP(&o.encoding, "encoding", "e", ircode.EncodingRaw, "Output encoding: Base64, Hex, Pronto, Raw or Generic")
	cmd.Flags().StringVar(&o.dir, "device-dir", "", "Device definition directory (overrides device_dir)")
	return cmd
}

func (o *encodeOptions) run(cmd *cobra.Command, args []string) error {
	code, err := strconv.Atoi(args[0])
	if err != nil || code <= 0 {
		return fmt.Errorf("invalid device code %q", args[0])
	}
	if o.encoding != ircode.EncodingGeneric && !ircode.Convertible(o.encoding) {
		return fmt.Errorf("%w: %q", ircode.ErrUnsupportedEncoding, o.encoding)
	}

	dir := o.dir
	if dir == "" {
		cfg, _, err := o.g.load()
		if err != nil {
			return err
		}
		dir = cfg.DeviceDir
	}

	d, err := devicedb.New(dir).Lookup(code)
	if err != nil {
		return err
	}
	req, err := o.req.request(cmd, d)
	if err != nil {
		return err
	}
	if req.HVACMode != climate.ModeOff {
		if rng, ok := d.Range(req.HVACMode); ok && !rng.Contains(req.Temperature) {
			return fmt.Errorf("temperature %g outside %g-%g for %s", req.Temperature, rng.Min, rng.Max, req.HVACMode)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Device:   %d %s\n", d.Code, d.Manufacturer)
	fmt.Fprintf(out, "Command:  mode=%s fan=%s swing=%s temp=%s\n",
		req.HVACMode, req.FanMode, orDash(req.SwingMode), climate.FormatTemperature(req.Temperature))

	if d.Encoder != nil {
		return o.printEncoded(out, d, req)
	}
	return o.printTable(out, d, req)
}

func (o *encodeOptions) printEncoded(out io.Writer, d *climate.Device, req climate.Request) error {
	g, err := climate.Encode(d, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Protocol: %s (%s)\n", g.Protocol, g.Params)
	for i, f := range g.Frames {
		fmt.Fprintf(out, "Frame %d:  %X\n", i+1, f)
	}
	if o.encoding == ircode.EncodingGeneric {
		return nil
	}

	c, err := ircode.FromGeneric(g)
	if err != nil {
		return err
	}
	text, err := ircode.Encode(o.encoding, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pulses:   %d marks, %v\n", c.Marks(), c.Duration())
	fmt.Fprintf(out, "%s:%s%s\n", o.encoding, pad(o.encoding), text)
	return nil
}

func (o *encodeOptions) printTable(out io.Writer, d *climate.Device, req climate.Request) error {
	var payloads []string
	if req.HVACMode == climate.ModeOff {
		off, ok := d.Commands.Off()
		if !ok {
			return fmt.Errorf("%w: off", climate.ErrNoCommand)
		}
		payloads = off
	} else {
		keys := []string{req.HVACMode, req.FanMode}
		if d.SupportsSwing() {
			keys = append(keys, req.SwingMode)
		}
		keys = append(keys, climate.FormatTemperature(req.Temperature))
		leaf, err := d.Commands.Lookup(keys...)
		if err != nil {
			return err
		}
		if on, ok := d.Commands.On(); ok {
			payloads = append(payloads, on...)
		}
		payloads = append(payloads, leaf...)
	}

	enc := d.CommandsEncoding
	for i, p := range payloads {
		if o.encoding != ircode.EncodingGeneric && o.encoding != enc && ircode.Convertible(enc) {
			converted, err := ircode.Convert(enc, o.encoding, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %d:%s%s\n", o.encoding, i+1, pad(o.encoding+" 1"), converted)
			continue
		}
		fmt.Fprintf(out, "%s %d:%s%s\n", enc, i+1, pad(enc+" 1"), p)
	}
	return nil
}

// pad aligns a label of the given text to the 10 column value column.
func pad(label string) string {
	if n := 9 - len(label); n > 0 {
		return fmt.Sprintf("%*s", n, "")
	}
	return " "
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
