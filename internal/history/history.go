// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package history records every command sent to an appliance.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeSent   = "SENT"
	TypeFailed = "FAILED"
)

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 100

// Event is one send attempt.
type Event struct {
	ID          string    `json:"id"`
	EntityID    string    `json:"entity_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	HVACMode    string    `json:"hvac_mode"`
	FanMode     string    `json:"fan_mode"`
	SwingMode   string    `json:"swing_mode,omitempty"`
	Temperature float64   `json:"temperature"`
	Error       string    `json:"error,omitempty"`
}

// Store appends and lists events.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

// Append inserts e. Empty ID and zero OccurredAt are filled in.
func (s *Store) Append(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var swing, errText sql.NullString
	if e.SwingMode != "" {
		swing = sql.NullString{String: e.SwingMode, Valid: true}
	}
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO send_events (id, entity_id, occurred_at, type, hvac_mode, fan_mode, swing_mode, temperature, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.EntityID,
		e.OccurredAt.UnixMilli(),
		e.Type,
		e.HVACMode,
		e.FanMode,
		swing,
		e.Temperature,
		errText,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List returns the most recent events of entityID, newest first. An empty
// entityID lists every entity.
func (s *Store) List(ctx context.Context, entityID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := `SELECT id, entity_id, occurred_at, type, hvac_mode, fan_mode, swing_mode, temperature, error FROM send_events`
	var args []any
	if entityID != "" {
		q += " WHERE entity_id = ?"
		args = append(args, entityID)
	}
	q += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var (
			e          Event
			occurredAt int64
			swing      sql.NullString
			errText    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.EntityID, &occurredAt, &e.Type, &e.HVACMode, &e.FanMode, &swing, &e.Temperature, &errText); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.OccurredAt = time.UnixMilli(occurredAt).UTC()
		e.SwingMode = swing.String
		e.Error = errText.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
