// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package controller delivers IR codes through transport backends.
//
// Each adapter accepts an ordered set of text encodings, the first being its
// default. At construction the adapter picks its target encoding from the
// device's source encoding and fails fast when no conversion path exists.
package controller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/ircode"
)

// Controller sends commands through one transport.
type Controller interface {
	// Name returns the logical controller name, e.g. "Broadlink".
	Name() string
	// Encoding returns the encoding payloads are converted to.
	Encoding() string
	// Send converts cmd and performs the transport call.
	Send(ctx context.Context, cmd Command) error
}

// Command is what a controller sends: encoder output, a pulse train, or one
// or more texts in the device's source encoding.
type Command struct {
	Generic  *climate.GenericCommand
	Code     *ircode.Code
	Payloads []string
}

// Text returns a command made of source-encoded payloads.
func Text(payloads ...string) Command {
	return Command{Payloads: payloads}
}

// Generic returns a command carrying encoder output.
func Generic(g climate.GenericCommand) Command {
	return Command{Generic: &g}
}

// Pulses returns a command carrying a pulse train.
func Pulses(c *ircode.Code) Command {
	return Command{Code: c}
}

// count returns the number of payloads the command expands to.
func (c Command) count() int {
	if c.Generic != nil || c.Code != nil {
		return 1
	}
	return len(c.Payloads)
}

// base holds the negotiated encodings shared by every adapter.
type base struct {
	name   string
	source string
	target string
	data   string
	delay  time.Duration
	multi  bool
	log    *zap.SugaredLogger
}

func newBase(name string, encodings []string, multi bool, opts Options) (base, error) {
	b := base{
		name:   name,
		source: opts.Encoding,
		target: encodings[0],
		data:   opts.Data,
		delay:  opts.Delay,
		multi:  multi,
		log:    opts.Logger,
	}
	if b.log == nil {
		b.log = zap.NewNop().Sugar()
	}
	for _, enc := range encodings {
		if enc == opts.Encoding {
			b.target = enc
			break
		}
	}

	if !ircode.Convertible(b.source) && b.source != climate.EncodingGeneric && b.source != b.target {
		return base{}, fmt.Errorf("%w: %s cannot send %s codes (accepts %v)",
			ErrUnsupportedConversion, name, b.source, encodings)
	}
	return b, nil
}

func (b *base) Name() string     { return b.name }
func (b *base) Encoding() string { return b.target }

// convert produces the payloads in the target encoding.
func (b *base) convert(cmd Command) ([]string, error) {
	if n := cmd.count(); n == 0 {
		return nil, fmt.Errorf("%s: empty command", b.name)
	} else if n > 1 && !b.multi {
		return nil, fmt.Errorf("%w: %s got %d", ErrMultiPayload, b.name, n)
	}

	b.log.Debugw("Original command", "controller", b.name, "command", cmd)

	var out []string
	switch {
	case cmd.Code != nil:
		s, err := ircode.Encode(b.target, cmd.Code)
		if err != nil {
			return nil, err
		}
		out = []string{s}

	case cmd.Generic != nil:
		code, err := ircode.FromGeneric(*cmd.Generic)
		if err != nil {
			return nil, err
		}
		s, err := ircode.Encode(b.target, code)
		if err != nil {
			return nil, err
		}
		out = []string{s}

	case b.source == climate.EncodingGeneric:
		return nil, fmt.Errorf("%s: generic device sent text payloads", b.name)

	// raw codes are always renormalized
	case b.source != b.target || b.target == climate.EncodingRaw:
		out = make([]string, 0, len(cmd.Payloads))
		for _, p := range cmd.Payloads {
			s, err := ircode.Convert(b.source, b.target, p)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}

	default:
		out = cmd.Payloads
	}

	b.log.Debugw("Converted command", "controller", b.name, "encoding", b.target, "command", out)
	return out, nil
}
