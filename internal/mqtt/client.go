// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mqtt publishes IR payloads to an MQTT broker.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Thermoquad/smartir/internal/logger"
)

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Retain   bool
}

// Publisher publishes payloads over a paho client.
type Publisher struct {
	client paho.Client
	qos    byte
	retain bool
	log    *logger.Logger
}

// Connect creates a publisher connected to config.Broker.
func Connect(config ClientConfig, log *logger.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Infow("MQTT connection established", "broker", config.Broker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warnw("MQTT connection lost", "error", err)
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return NewPublisher(client, config.QoS, config.Retain, log), nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client paho.Client, qos byte, retain bool, log *logger.Logger) *Publisher {
	return &Publisher{client: client, qos: qos, retain: retain, log: log}
}

// Publish sends payload to topic and waits for the broker acknowledgement or
// ctx cancellation.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	p.log.Debugw("Published IR payload", "topic", topic, "bytes", len(payload))
	return nil
}

// IsConnected returns whether the client is currently connected
func (p *Publisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	p.log.Infow("MQTT client disconnected")
}
