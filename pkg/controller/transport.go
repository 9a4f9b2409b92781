// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.bug.st/serial"
)

// ServiceCaller invokes a home automation service, e.g. remote.send_command.
type ServiceCaller interface {
	CallService(ctx context.Context, domain, service string, data map[string]interface{}) error
}

// Publisher publishes a payload to an MQTT topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// HTTPDoer performs HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SerialOpener opens a serial IR blaster for writing.
type SerialOpener func(port string, baud int) (io.WriteCloser, error)

// DefaultSerialBaud is used when Options.SerialBaud is zero.
const DefaultSerialBaud = 115200

// OpenSerialPort opens a serial port at 8N1.
func OpenSerialPort(port string, baud int) (io.WriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}
