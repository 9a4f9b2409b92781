// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package api exposes climate entities over a JSON REST API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Thermoquad/smartir/internal/entity"
	"github.com/Thermoquad/smartir/internal/history"
	"github.com/Thermoquad/smartir/internal/hub"
	"github.com/Thermoquad/smartir/internal/logger"
	"github.com/Thermoquad/smartir/pkg/climate"
	"github.com/Thermoquad/smartir/pkg/controller"
)

// Entities is the part of the hub the API serves.
type Entities interface {
	Entities() []*entity.Entity
	Entity(id string) (*entity.Entity, error)
	History(ctx context.Context, id string, limit int) ([]history.Event, error)
}

// Handler wires the HTTP layer to the hub.
type Handler struct {
	hub Entities
	log *logger.Logger
}

func NewHandler(h Entities, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{hub: h, log: log}
}

// InitRoutes builds the gin router.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		climates := api.Group("/climates")
		climates.GET("", h.listClimates)
		climates.GET("/:id", h.getClimate)
		climates.GET("/:id/history", h.getHistory)
		climates.POST("/:id/hvac_mode", h.setHVACMode)
		climates.POST("/:id/fan_mode", h.setFanMode)
		climates.POST("/:id/swing_mode", h.setSwingMode)
		climates.POST("/:id/temperature", h.setTemperature)
		climates.POST("/:id/turn_on", h.turnOn)
		climates.POST("/:id/turn_off", h.turnOff)
		climates.POST("/:id/toggles/:name", h.setToggle)
		climates.POST("/:id/actions/:action", h.runAction)
	}
	return router
}

// View is the JSON representation of an entity.
type View struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	DeviceCode      int          `json:"device_code"`
	Manufacturer    string       `json:"manufacturer"`
	SupportedModels []string     `json:"supported_models"`
	HVACModes       []string     `json:"hvac_modes"`
	FanModes        []string     `json:"fan_modes"`
	SwingModes      []string     `json:"swing_modes,omitempty"`
	Toggles         []string     `json:"toggles,omitempty"`
	Actions         []string     `json:"actions,omitempty"`
	MinTemp         float64      `json:"min_temp"`
	MaxTemp         float64      `json:"max_temp"`
	Step            float64      `json:"target_temperature_step"`
	State           entity.State `json:"state"`
}

func newView(e *entity.Entity) View {
	d := e.Device()
	st := e.State()
	bounds := e.Bounds()
	if _, ok := d.Range(st.HVACMode); !ok {
		st.TargetTemperature = 0
	}
	return View{
		ID:              e.ID(),
		Name:            e.Name(),
		DeviceCode:      d.Code,
		Manufacturer:    d.Manufacturer,
		SupportedModels: d.SupportedModels,
		HVACModes:       d.HVACModes(),
		FanModes:        d.FanModes,
		SwingModes:      d.SwingModes,
		Toggles:         d.Toggles,
		Actions:         d.Actions,
		MinTemp:         bounds.Min,
		MaxTemp:         bounds.Max,
		Step:            d.Precision,
		State:           st,
	}
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type temperatureRequest struct {
	Temperature *float64 `json:"temperature" binding:"required"`
	HVACMode    string   `json:"hvac_mode"`
}

type toggleRequest struct {
	On *bool `json:"on" binding:"required"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listClimates(c *gin.Context) {
	entities := h.hub.Entities()
	views := make([]View, 0, len(entities))
	for _, e := range entities {
		views = append(views, newView(e))
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) entity(c *gin.Context) (*entity.Entity, bool) {
	e, err := h.hub.Entity(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return e, true
}

func (h *Handler) getClimate(c *gin.Context) {
	if e, ok := h.entity(c); ok {
		c.JSON(http.StatusOK, newView(e))
	}
}

func (h *Handler) getHistory(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	events, err := h.hub.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// command runs fn on the addressed entity and responds with its view.
func (h *Handler) command(c *gin.Context, fn func(ctx context.Context, e *entity.Entity) error) {
	e, ok := h.entity(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), e); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newView(e))
}

func (h *Handler) bindMode(c *gin.Context) (string, bool) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return "", false
	}
	return req.Mode, true
}

func (h *Handler) setHVACMode(c *gin.Context) {
	if mode, ok := h.bindMode(c); ok {
		h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.SetHVACMode(ctx, mode) })
	}
}

func (h *Handler) setFanMode(c *gin.Context) {
	if mode, ok := h.bindMode(c); ok {
		h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.SetFanMode(ctx, mode) })
	}
}

func (h *Handler) setSwingMode(c *gin.Context) {
	if mode, ok := h.bindMode(c); ok {
		h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.SetSwingMode(ctx, mode) })
	}
}

func (h *Handler) setTemperature(c *gin.Context) {
	var req temperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	h.command(c, func(ctx context.Context, e *entity.Entity) error {
		return e.SetTemperature(ctx, *req.Temperature, req.HVACMode)
	})
}

func (h *Handler) turnOn(c *gin.Context) {
	h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.TurnOn(ctx) })
}

func (h *Handler) turnOff(c *gin.Context) {
	h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.TurnOff(ctx) })
}

func (h *Handler) setToggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	name := c.Param("name")
	h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.SetToggle(ctx, name, *req.On) })
}

func (h *Handler) runAction(c *gin.Context) {
	action := c.Param("action")
	h.command(c, func(ctx context.Context, e *entity.Entity) error { return e.RunAction(ctx, action) })
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hub.ErrUnknownEntity), errors.Is(err, hub.ErrNoHistory):
		return http.StatusNotFound
	case errors.Is(err, climate.ErrUnsupportedValue),
		errors.Is(err, entity.ErrTemperatureRange),
		errors.Is(err, entity.ErrNoTemperature),
		errors.Is(err, entity.ErrNoAction):
		return http.StatusBadRequest
	case errors.Is(err, climate.ErrNoCommand):
		return http.StatusUnprocessableEntity
	case errors.Is(err, controller.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "path", c.FullPath(), "id", c.Param("id"), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
