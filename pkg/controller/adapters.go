// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Thermoquad/smartir/pkg/climate"
)

// Logical controller names
const (
	NameBroadlink = "Broadlink"
	NameXiaomi    = "Xiaomi"
	NameMQTT      = "MQTT"
	NameLOOKin    = "LOOKin"
	NameESPHome   = "ESPHome"
	NameSerial    = "Serial"
)

// ============================================================
// Broadlink
// ============================================================

// Broadlink sends base64 packets through remote.send_command.
type Broadlink struct {
	base
	services ServiceCaller
}

var broadlinkEncodings = []string{climate.EncodingBase64}

// NewBroadlink creates a Broadlink controller. opts.Data is the remote entity.
func NewBroadlink(opts Options) (*Broadlink, error) {
	b, err := newBase(NameBroadlink, broadlinkEncodings, true, opts)
	if err != nil {
		return nil, err
	}
	if opts.Services == nil {
		return nil, fmt.Errorf("%w: %s needs a service caller", ErrMissingTransport, NameBroadlink)
	}
	return &Broadlink{base: b, services: opts.Services}, nil
}

// Send implements Controller
func (c *Broadlink) Send(ctx context.Context, cmd Command) error {
	payloads, err := c.convert(cmd)
	if err != nil {
		return err
	}
	commands := make([]string, len(payloads))
	for i, p := range payloads {
		commands[i] = "b64:" + p
	}

	data := map[string]interface{}{
		"entity_id":  c.data,
		"command":    commands,
		"delay_secs": c.delay.Seconds(),
	}
	if err := c.services.CallService(ctx, "remote", "send_command", data); err != nil {
		return transportError(c.name, "remote.send_command", err)
	}
	return nil
}

// ============================================================
// Xiaomi
// ============================================================

// Xiaomi sends pronto or native Xiaomi codes through remote.send_command.
type Xiaomi struct {
	base
	services ServiceCaller
}

var xiaomiEncodings = []string{climate.EncodingPronto, climate.EncodingXiaomi}

// NewXiaomi creates a Xiaomi controller. opts.Data is the remote entity.
func NewXiaomi(opts Options) (*Xiaomi, error) {
	b, err := newBase(NameXiaomi, xiaomiEncodings, false, opts)
	if err != nil {
		return nil, err
	}
	if opts.Services == nil {
		return nil, fmt.Errorf("%w: %s needs a service caller", ErrMissingTransport, NameXiaomi)
	}
	return &Xiaomi{base: b, services: opts.Services}, nil
}

// Send implements Controller
func (c *Xiaomi) Send(ctx context.Context, cmd Command) error {
	payloads, err := c.convert(cmd)
	if err != nil {
		return err
	}
	// the integration tags native codes as "raw"
	prefix := strings.Replace(strings.ToLower(c.target), "xiaomi", "raw", 1)

	data := map[string]interface{}{
		"entity_id": c.data,
		"command":   prefix + ":" + payloads[0],
	}
	if err := c.services.CallService(ctx, "remote", "send_command", data); err != nil {
		return transportError(c.name, "remote.send_command", err)
	}
	return nil
}

// ============================================================
// MQTT
// ============================================================

// MQTT publishes raw duration lists to a topic.
type MQTT struct {
	base
	publisher Publisher
}

var mqttEncodings = []string{climate.EncodingRaw}

// NewMQTT creates an MQTT controller. opts.Data is the topic.
func NewMQTT(opts Options) (*MQTT, error) {
	b, err := newBase(NameMQTT, mqttEncodings, false, opts)
	if err != nil {
		return nil, err
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("%w: %s needs a publisher", ErrMissingTransport, NameMQTT)
	}
	return &MQTT{base: b, publisher: opts.Publisher}, nil
}

// Send implements Controller
func (c *MQTT) Send(ctx context.Context, cmd Command) error {
	payloads, err := c.convert(cmd)
	if err != nil {
		return err
	}
	if err := c.publisher.Publish(ctx, c.data, []byte(payloads[0])); err != nil {
		return transportError(c.name, "publish "+c.data, err)
	}
	return nil
}

// ============================================================
// LOOKin
// ============================================================

// LOOKin issues a GET to the device's local HTTP API.
type LOOKin struct {
	base
	http HTTPDoer
}

var lookinEncodings = []string{climate.EncodingPronto, climate.EncodingRaw}

// NewLOOKin creates a LOOKin controller. opts.Data is the device host.
func NewLOOKin(opts Options) (*LOOKin, error) {
	b, err := newBase(NameLOOKin, lookinEncodings, false, opts)
	if err != nil {
		return nil, err
	}
	doer := opts.HTTP
	if doer == nil {
		doer = http.DefaultClient
	}
	return &LOOKin{base: b, http: doer}, nil
}

// URL returns the request URL for an encoded payload.
func (c *LOOKin) URL(payload string) string {
	enc := strings.Replace(strings.ToLower(c.target), "pronto", "prontohex", 1)
	code := strings.ReplaceAll(payload, ",", " ")
	return fmt.Sprintf("http://%s/commands/ir/%s/%s", c.data, enc, url.PathEscape(code))
}

// Send implements Controller
func (c *LOOKin) Send(ctx context.Context, cmd Command) error {
	payloads, err := c.convert(cmd)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(payloads[0]), nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", c.name, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(c.name, "GET", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return transportError(c.name, "GET", fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	return nil
}

// ============================================================
// ESPHome
// ============================================================

// ESPHome calls a user-defined ESPHome service with the duration list.
type ESPHome struct {
	base
	services ServiceCaller
}

var esphomeEncodings = []string{climate.EncodingRaw}

// NewESPHome creates an ESPHome controller. opts.Data is the service name.
func NewESPHome(opts Options) (*ESPHome, error) {
	b, err := newBase(NameESPHome, esphomeEncodings, false, opts)
	if err != nil {
		return nil, err
	}
	if opts.Services == nil {
		return nil, fmt.Errorf("%w: %s needs a service caller", ErrMissingTransport, NameESPHome)
	}
	return &ESPHome{base: b, services: opts.Services}, nil
}

// Send implements Controller
func (c *ESPHome) Send(ctx context.Context, cmd Command) error {
	payloads, err := c.convert(cmd)
	if err != nil {
		return err
	}
	durations, err := parseInts(payloads[0])
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	data := map[string]interface{}{"command": durations}
	if err := c.services.CallService(ctx, "esphome", c.data, data); err != nil {
		return transportError(c.name, "esphome."+c.data, err)
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// ============================================================
// Serial
// ============================================================

// Serial writes raw duration lists, one per line, to a serial IR blaster.
type Serial struct {
	base
	open SerialOpener
	baud int
}

var serialEncodings = []string{climate.EncodingRaw}

// NewSerial creates a Serial controller. opts.Data is the port device.
func NewSerial(opts Options) (*Serial, error) {
	b, err := newBase(NameSerial, serialEncodings, false, opts)
	if err != nil {
		return nil, err
	}
	open := opts.OpenSerial
	if open == nil {
		open = OpenSerialPort
	}
	baud := opts.SerialBaud
	if baud == 0 {
		baud = DefaultSerialBaud
	}
	return &Serial{base: b, open: open, baud: baud}, nil
}

// Send implements Controller
func (c *Serial) Send(ctx context.Context, cmd Command) error {
	payloads, err := c.convert(cmd)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	port, err := c.open(c.data, c.baud)
	if err != nil {
		return transportError(c.name, "open", err)
	}
	defer port.Close()

	if _, err := io.WriteString(port, payloads[0]+"\n"); err != nil {
		return transportError(c.name, "write", err)
	}
	return nil
}
