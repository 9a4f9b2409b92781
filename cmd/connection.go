// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Thermoquad/smartir/internal/config"
	"github.com/Thermoquad/smartir/internal/hub"
	"github.com/Thermoquad/smartir/internal/logger"
)

// session is an open hub with the connections behind it.
type session struct {
	cfg *config.Config
	log *logger.Logger
	rt  *hub.Runtime
	hub *hub.Hub
}

func (s *session) Close() {
	s.rt.Close()
	_ = s.log.Sync()
}

// GetToken prompts for the Home Assistant long-lived access token without echo.
func GetToken(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Home Assistant token: ")

	// Read token without echo
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		if err == nil {
			fmt.Fprintln(out) // newline after token
			return string(tokenBytes), nil
		}
	}

	// Fallback to regular input if terminal functions fail
	reader := bufio.NewReader(in)
	token, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && token != "") {
		return "", fmt.Errorf("failed to read token: %v", err)
	}
	fmt.Fprintln(out)
	return strings.TrimSpace(token), nil
}

// openSession loads the configuration, connects every configured transport
// and builds the climate entities.
func openSession(ctx context.Context, g *globalFlags) (*session, error) {
	cfg, log, err := g.load()
	if err != nil {
		return nil, err
	}

	if cfg.HASS.URL != "" && cfg.HASS.Token == "" {
		token, err := GetToken(os.Stdin, os.Stderr)
		if err != nil {
			return nil, err
		}
		cfg.HASS.Token = token
	}

	rt, err := hub.Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	h, err := hub.New(cfg, rt.Deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, rt: rt, hub: h}, nil
}

// track follows Home Assistant sensor states when connected.
func (s *session) track(ctx context.Context) {
	if s.rt.HASS == nil {
		return
	}
	if err := s.hub.Track(ctx, s.rt.HASS); err != nil {
		s.log.Warnw("Sensor tracking disabled", "error", err)
	}
}
