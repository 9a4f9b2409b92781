// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hass is a minimal Home Assistant websocket API client: it
// authenticates, calls services and subscribes to events.
package hass

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrClosed is returned for requests on a closed or failed connection.
var ErrClosed = errors.New("home assistant connection closed")

// ErrAuth is returned when the access token is rejected.
var ErrAuth = errors.New("home assistant authentication failed")

// APIError is an error result returned by Home Assistant.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("home assistant: %s: %s", e.Code, e.Message)
}

// Event is a message delivered to an event subscription.
type Event struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// State is an entity state object.
type State struct {
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// StateChange is the payload of a state_changed event. OldState and NewState
// are nil when the entity was added or removed.
type StateChange struct {
	EntityID string `json:"entity_id"`
	OldState *State `json:"old_state"`
	NewState *State `json:"new_state"`
}

// StateChanged decodes a state_changed event.
func (e Event) StateChanged() (StateChange, error) {
	var sc StateChange
	if e.EventType != "state_changed" {
		return sc, fmt.Errorf("event %q is not state_changed", e.EventType)
	}
	if err := json.Unmarshal(e.Data, &sc); err != nil {
		return sc, fmt.Errorf("failed to decode state_changed: %w", err)
	}
	return sc, nil
}

type incoming struct {
	ID        int             `json:"id"`
	Type      string          `json:"type"`
	Success   bool            `json:"success"`
	Error     *APIError       `json:"error"`
	Result    json.RawMessage `json:"result"`
	Event     *Event          `json:"event"`
	HAVersion string          `json:"ha_version"`
	Message   string          `json:"message"`
}

type result struct {
	data json.RawMessage
	err  error
}

// Options configures Dial.
type Options struct {
	SkipTLSVerify    bool
	HandshakeTimeout time.Duration
	Logger           *zap.SugaredLogger
}

// Client is an authenticated websocket connection. It is safe for
// concurrent use.
type Client struct {
	conn      *websocket.Conn
	log       *zap.SugaredLogger
	haVersion string

	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   int
	pending  map[int]chan result
	handlers map[int]func(Event)
	err      error

	done chan struct{}
}

// WebsocketURL turns a Home Assistant base URL into its websocket API URL.
// ws:// and wss:// URLs with a path are used as given.
func WebsocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		if u.Path != "" && u.Path != "/" {
			return u.String(), nil
		}
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s (use http(s):// or ws(s)://)", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/websocket"
	return u.String(), nil
}

// Dial connects and authenticates with token.
func Dial(ctx context.Context, rawURL, token string, opts Options) (*Client, error) {
	wsURL, err := WebsocketURL(rawURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	if strings.HasPrefix(wsURL, "wss://") {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.SkipTLSVerify}
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	c := &Client{
		conn:     conn,
		log:      opts.Logger,
		pending:  make(map[int]chan result),
		handlers: make(map[int]func(Event)),
		done:     make(chan struct{}),
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}

	if err := c.authenticate(ctx, token); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) authenticate(ctx context.Context, token string) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}

	var msg incoming
	if err := c.conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("failed to read auth request: %w", err)
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected message %q before auth", msg.Type)
	}
	c.haVersion = msg.HAVersion

	if err := c.conn.WriteJSON(map[string]string{"type": "auth", "access_token": token}); err != nil {
		return fmt.Errorf("failed to send auth: %w", err)
	}

	msg = incoming{}
	if err := c.conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("failed to read auth response: %w", err)
	}
	switch msg.Type {
	case "auth_ok":
		if msg.HAVersion != "" {
			c.haVersion = msg.HAVersion
		}
		return nil
	case "auth_invalid":
		return fmt.Errorf("%w: %s", ErrAuth, msg.Message)
	}
	return fmt.Errorf("unexpected auth response %q", msg.Type)
}

// HAVersion returns the server version reported during authentication.
func (c *Client) HAVersion() string {
	return c.haVersion
}

// CallService invokes domain.service with data and waits for the result.
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	_, err := c.request(ctx, map[string]interface{}{
		"type":         "call_service",
		"domain":       domain,
		"service":      service,
		"service_data": data,
	}, nil)
	return err
}

// GetStates returns every entity state.
func (c *Client) GetStates(ctx context.Context) ([]State, error) {
	raw, err := c.request(ctx, map[string]interface{}{"type": "get_states"}, nil)
	if err != nil {
		return nil, err
	}
	var states []State
	if err := json.Unmarshal(raw, &states); err != nil {
		return nil, fmt.Errorf("failed to decode states: %w", err)
	}
	return states, nil
}

// Subscribe delivers events of eventType to fn until the connection closes.
// fn runs on the read goroutine and must not block.
func (c *Client) Subscribe(ctx context.Context, eventType string, fn func(Event)) error {
	_, err := c.request(ctx, map[string]interface{}{
		"type":       "subscribe_events",
		"event_type": eventType,
	}, fn)
	return err
}

func (c *Client) request(ctx context.Context, msg map[string]interface{}, handler func(Event)) (json.RawMessage, error) {
	ch := make(chan result, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	if handler != nil {
		c.handlers[id] = handler
	}
	c.mu.Unlock()

	msg["id"] = id
	c.writeMu.Lock()
	err := c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("failed to send %v: %w", msg["type"], err)
	}

	select {
	case r := <-ch:
		if r.err != nil && handler != nil {
			c.forget(id)
		}
		return r.data, r.err
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.closedErr()
	}
}

func (c *Client) forget(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	delete(c.handlers, id)
	c.mu.Unlock()
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var msg incoming
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.fail(err)
			return
		}

		switch msg.Type {
		case "result":
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mu.Unlock()
			if !ok {
				continue
			}
			r := result{data: msg.Result}
			if !msg.Success {
				r.err = msg.Error
				if msg.Error == nil {
					r.err = &APIError{Code: "unknown_error", Message: "request failed"}
				}
			}
			ch <- r

		case "event":
			c.mu.Lock()
			fn := c.handlers[msg.ID]
			c.mu.Unlock()
			if fn != nil && msg.Event != nil {
				fn(*msg.Event)
			}

		default:
			c.log.Debugw("Ignoring websocket message", "type", msg.Type, "id", msg.ID)
		}
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	for id, ch := range c.pending {
		ch <- result{err: c.err}
		delete(c.pending, id)
	}
}

// Close closes the connection and waits for the reader to exit.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}
