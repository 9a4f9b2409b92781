// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hub

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Thermoquad/smartir/internal/config"
	"github.com/Thermoquad/smartir/internal/devicedb"
	"github.com/Thermoquad/smartir/internal/history"
	"github.com/Thermoquad/smartir/internal/logger"
	"github.com/Thermoquad/smartir/internal/mqtt"
	"github.com/Thermoquad/smartir/internal/statestore"
	"github.com/Thermoquad/smartir/pkg/controller"
	"github.com/Thermoquad/smartir/pkg/hass"
)

const httpTimeout = 10 * time.Second

// Runtime holds the connections opened for a hub.
type Runtime struct {
	Deps Deps
	// HASS is nil when no Home Assistant URL is configured.
	HASS *hass.Client

	mqtt *mqtt.Publisher
	db   *sql.DB
}

// Connect opens every transport and store the configuration asks for.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	rt := &Runtime{
		Deps: Deps{
			Devices:    devicedb.New(cfg.DeviceDir),
			HTTP:       &http.Client{Timeout: httpTimeout},
			OpenSerial: controller.OpenSerialPort,
			Logger:     log,
		},
	}

	if cfg.HASS.URL != "" {
		client, err := hass.Dial(ctx, cfg.HASS.URL, cfg.HASS.Token, hass.Options{
			SkipTLSVerify: cfg.HASS.SkipTLSVerify,
			Logger:        log.Named("hass").SugaredLogger,
		})
		if err != nil {
			return nil, err
		}
		rt.HASS = client
		rt.Deps.Services = client
		rt.Deps.Publisher = hass.NewMQTTPublisher(client)
		log.Infow("Connected to Home Assistant", "url", cfg.HASS.URL, "version", client.HAVersion())
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.Connect(mqtt.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      byte(cfg.MQTT.QoS),
			Retain:   cfg.MQTT.Retain,
		}, log.Named("mqtt"))
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.mqtt = pub
		rt.Deps.Publisher = pub
	}

	states, err := statestore.Open(cfg.StateFile)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Deps.States = states

	if cfg.History.Path != "" {
		db, err := history.InitDB(cfg.History.Path)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		rt.db = db
		rt.Deps.History = history.New(db)
	}
	return rt, nil
}

// Close releases every connection.
func (rt *Runtime) Close() {
	if rt.HASS != nil {
		_ = rt.HASS.Close()
	}
	if rt.mqtt != nil {
		rt.mqtt.Close()
	}
	if rt.db != nil {
		_ = rt.db.Close()
	}
}
