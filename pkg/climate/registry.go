// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package climate

import (
	"fmt"
	"sort"
)

// Registry maps device codes to definitions. It is filled once and read-only
// afterwards.
type Registry struct {
	devices map[int]*Device
}

// NewRegistry creates a registry holding devs.
func NewRegistry(devs ...*Device) *Registry {
	r := &Registry{devices: make(map[int]*Device, len(devs))}
	for _, d := range devs {
		r.devices[d.Code] = d
	}
	return r
}

// Builtin returns a registry of every device with a protocol encoder.
func Builtin() *Registry {
	return NewRegistry(Toshiba, Daikin, Mitsubishi, Sharp)
}

// Lookup returns the definition for code.
func (r *Registry) Lookup(code int) (*Device, error) {
	d, ok := r.devices[code]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDevice, code)
	}
	return d, nil
}

// Codes returns the registered device codes in ascending order.
func (r *Registry) Codes() []int {
	codes := make([]int, 0, len(r.devices))
	for c := range r.devices {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}
