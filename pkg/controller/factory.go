// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package controller

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Options configures a controller. Only the transport the adapter uses needs
// to be set.
type Options struct {
	// Encoding is the device's source encoding.
	Encoding string
	// Data is the controller target: entity id, topic, host, service or port.
	Data string
	// Delay is passed to transports that pace multi-code sends.
	Delay time.Duration

	Services   ServiceCaller
	Publisher  Publisher
	HTTP       HTTPDoer
	OpenSerial SerialOpener
	SerialBaud int

	Logger *zap.SugaredLogger
}

type constructor func(opts Options) (Controller, error)

var registry = map[string]constructor{
	NameBroadlink: func(o Options) (Controller, error) { return NewBroadlink(o) },
	NameXiaomi:    func(o Options) (Controller, error) { return NewXiaomi(o) },
	NameMQTT:      func(o Options) (Controller, error) { return NewMQTT(o) },
	NameLOOKin:    func(o Options) (Controller, error) { return NewLOOKin(o) },
	NameESPHome:   func(o Options) (Controller, error) { return NewESPHome(o) },
	NameSerial:    func(o Options) (Controller, error) { return NewSerial(o) },
}

var accepted = map[string][]string{
	NameBroadlink: broadlinkEncodings,
	NameXiaomi:    xiaomiEncodings,
	NameMQTT:      mqttEncodings,
	NameLOOKin:    lookinEncodings,
	NameESPHome:   esphomeEncodings,
	NameSerial:    serialEncodings,
}

// New creates the controller registered under name.
func New(name string, opts Options) (Controller, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownController, name)
	}
	return ctor(opts)
}

// Names returns the registered controller names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Accepts returns the encodings a controller accepts, default first.
func Accepts(name string) ([]string, error) {
	encs, ok := accepted[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownController, name)
	}
	return append([]string(nil), encs...), nil
}
