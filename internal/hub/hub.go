// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hub builds climate entities from configuration and keeps them
// connected to their sensors, state store and send history.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/smartir/internal/config"
	"github.com/Thermoquad/smartir/internal/entity"
	"github.com/Thermoquad/smartir/internal/history"
	"github.com/Thermoquad/smartir/internal/logger"
	"github.com/Thermoquad/smartir/internal/statestore"
	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/controller"
	"github.com/Thermoquad/smartir/pkg/hass"
)

// Errors
var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrNoHistory     = errors.New("history is disabled")
)

const historyTimeout = 5 * time.Second

// DeviceSource resolves device codes. *devicedb.DB implements it.
type DeviceSource interface {
	Lookup(code int) (*climate.Device, error)
}

// StateSource provides sensor states. *hass.Client implements it.
type StateSource interface {
	GetStates(ctx context.Context) ([]hass.State, error)
	Subscribe(ctx context.Context, eventType string, fn func(hass.Event)) error
}

// Deps are the collaborators a hub is built from. Transports that are nil
// are unavailable; controllers needing them fail to build.
type Deps struct {
	Devices    DeviceSource
	Services   controller.ServiceCaller
	Publisher  controller.Publisher
	HTTP       controller.HTTPDoer
	OpenSerial controller.SerialOpener

	// States and History are optional.
	States  *statestore.Store
	History *history.Store

	Logger *logger.Logger
}

type sensorKind int

const (
	sensorTemperature sensorKind = iota
	sensorHumidity
	sensorPower
)

type binding struct {
	kind   sensorKind
	entity *entity.Entity
}

// Hub owns the configured entities.
type Hub struct {
	log     *logger.Logger
	states  *statestore.Store
	history *history.Store

	entities map[string]*entity.Entity
	order    []string
	sensors  map[string][]binding
}

// New builds every configured climate entity and restores its stored state.
func New(cfg *config.Config, deps Deps) (*Hub, error) {
	if deps.Devices == nil {
		return nil, errors.New("hub: no device source")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	h := &Hub{
		log:      deps.Logger.Named("hub"),
		states:   deps.States,
		history:  deps.History,
		entities: make(map[string]*entity.Entity, len(cfg.Climates)),
		sensors:  make(map[string][]binding),
	}

	for _, cc := range cfg.Climates {
		e, err := h.build(cfg, cc, deps)
		if err != nil {
			return nil, fmt.Errorf("climate %q: %w", cc.Name, err)
		}
		id := cc.ID()
		h.entities[id] = e
		h.order = append(h.order, id)

		h.bind(cc.TemperatureSensor, sensorTemperature, e)
		h.bind(cc.HumiditySensor, sensorHumidity, e)
		h.bind(cc.PowerSensor, sensorPower, e)

		if h.states != nil {
			if st, ok := h.states.Get(id); ok {
				e.Restore(st)
			}
		}
		h.log.Infow("Entity ready", "entity", id, "device", cc.DeviceCode, "manufacturer", e.Device().Manufacturer)
	}
	return h, nil
}

func (h *Hub) build(cfg *config.Config, cc config.ClimateConfig, deps Deps) (*entity.Entity, error) {
	device, err := deps.Devices.Lookup(cc.DeviceCode)
	if err != nil {
		return nil, err
	}

	ctrlType := cc.ControllerType
	if ctrlType == "" {
		ctrlType = device.DefaultController
	}
	if ctrlType == "" {
		return nil, fmt.Errorf("no controller_type and device %d has no default controller", cc.DeviceCode)
	}

	ctrl, err := controller.New(ctrlType, controller.Options{
		Encoding:   device.CommandsEncoding,
		Data:       cc.ControllerData,
		Delay:      cc.DelayDuration(),
		Services:   deps.Services,
		Publisher:  deps.Publisher,
		HTTP:       deps.HTTP,
		OpenSerial: deps.OpenSerial,
		SerialBaud: cfg.Serial.Baud,
		Logger:     deps.Logger.Named(ctrlType).SugaredLogger,
	})
	if err != nil {
		return nil, err
	}

	return entity.New(entity.Options{
		ID:                      cc.ID(),
		Name:                    cc.Name,
		Device:                  device,
		Sender:                  ctrl,
		Delay:                   cc.DelayDuration(),
		Policy:                  entity.FailurePolicy(cfg.FailurePolicy),
		SendTimeout:             cfg.SendTimeout,
		PowerSensorRestoreState: cc.PowerSensorRestoreState,
		OnChange:                h.persist,
		OnSend:                  h.record,
		Logger:                  deps.Logger.Named("entity"),
	})
}

func (h *Hub) bind(sensor string, kind sensorKind, e *entity.Entity) {
	if sensor == "" {
		return
	}
	h.sensors[sensor] = append(h.sensors[sensor], binding{kind: kind, entity: e})
}

func (h *Hub) persist(id string, st entity.State) {
	if h.states == nil {
		return
	}
	if err := h.states.Put(id, st); err != nil {
		h.log.Errorw("Failed to persist state", "entity", id, "error", err)
	}
}

func (h *Hub) record(id string, st entity.State, sendErr error) {
	if h.history == nil {
		return
	}
	ev := history.Event{
		EntityID:    id,
		Type:        history.TypeSent,
		HVACMode:    st.HVACMode,
		FanMode:     st.FanMode,
		SwingMode:   st.SwingMode,
		Temperature: st.TargetTemperature,
	}
	if sendErr != nil {
		ev.Type = history.TypeFailed
		ev.Error = sendErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := h.history.Append(ctx, ev); err != nil {
		h.log.Errorw("Failed to record send", "entity", id, "error", err)
	}
}

// Entities returns the entities in configuration order.
func (h *Hub) Entities() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.entities[id])
	}
	return out
}

// Entity returns the entity with id.
func (h *Hub) Entity(id string) (*entity.Entity, error) {
	e, ok := h.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, id)
	}
	return e, nil
}

// History lists recent sends of id, newest first.
func (h *Hub) History(ctx context.Context, id string, limit int) ([]history.Event, error) {
	if h.history == nil {
		return nil, ErrNoHistory
	}
	if _, err := h.Entity(id); err != nil {
		return nil, err
	}
	return h.history.List(ctx, id, limit)
}

// HandleStateChange routes a sensor change to the entities bound to it.
func (h *Hub) HandleStateChange(sc hass.StateChange) {
	bindings, ok := h.sensors[sc.EntityID]
	if !ok {
		return
	}

	var oldState, newState string
	if sc.OldState != nil {
		oldState = sc.OldState.State
	}
	if sc.NewState != nil {
		newState = sc.NewState.State
	}

	for _, b := range bindings {
		h.apply(b, sc.EntityID, oldState, newState)
	}
}

func (h *Hub) apply(b binding, sensor, oldState, newState string) {
	var err error
	switch b.kind {
	case sensorTemperature:
		err = b.entity.UpdateTemperature(newState)
	case sensorHumidity:
		err = b.entity.UpdateHumidity(newState)
	case sensorPower:
		b.entity.PowerChanged(oldState, newState)
	}
	if err != nil {
		h.log.Errorw("Unable to update from sensor", "sensor", sensor, "entity", b.entity.ID(), "error", err)
	}
}

// Track seeds the temperature and humidity readings from the current
// states, then follows state_changed events.
func (h *Hub) Track(ctx context.Context, src StateSource) error {
	if len(h.sensors) == 0 {
		return nil
	}

	states, err := src.GetStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sensor states: %w", err)
	}
	for _, st := range states {
		for _, b := range h.sensors[st.EntityID] {
			if b.kind != sensorPower {
				h.apply(b, st.EntityID, "", st.State)
			}
		}
	}

	return src.Subscribe(ctx, "state_changed", func(ev hass.Event) {
		sc, err := ev.StateChanged()
		if err != nil {
			h.log.Warnw("Ignoring malformed event", "error", err)
			return
		}
		h.HandleStateChange(sc)
	})
}
