// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hass

import "context"

// ServiceCaller is the subset of Client used by MQTTPublisher.
type ServiceCaller interface {
	CallService(ctx context.Context, domain, service string, data map[string]interface{}) error
}

// MQTTPublisher publishes through Home Assistant's mqtt.publish service, for
// setups where only Home Assistant talks to the broker.
type MQTTPublisher struct {
	caller ServiceCaller
}

// NewMQTTPublisher creates a publisher that calls mqtt.publish on caller.
func NewMQTTPublisher(caller ServiceCaller) *MQTTPublisher {
	return &MQTTPublisher{caller: caller}
}

// Publish calls mqtt.publish with topic and payload.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	return p.caller.CallService(ctx, "mqtt", "publish", map[string]interface{}{
		"topic":   topic,
		"payload": string(payload),
	})
}
