// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/internal/config"
	"github.com/Thermoquad/smartir/internal/logger"
)

// Version is the smartir release.
const Version = "1.0.0"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "smartir",
		Short: "IR/RF climate command encoder and dispatcher",
		Long: `SmartIR - drive remote-controlled air conditioners through IR/RF blasters.

Turns a climate command (mode, fan, swing, temperature, toggles) into the IR
frames the appliance's own remote would send, converts codes between the
Broadlink, Pronto and Raw encodings, and delivers them through Broadlink,
Xiaomi, MQTT, LOOKin, ESPHome or serial blasters.

Configuration is read from smartir.yaml (--config, or ./ and /etc/smartir).
Every key can be overridden from the environment with the SMARTIR_ prefix,
e.g. SMARTIR_HASS_TOKEN. The Home Assistant token is prompted for when a URL
is configured without one.`,
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default ./smartir.yaml or /etc/smartir/smartir.yaml)")
	rootCmd.PersistentFlags().StringVarP(&g.logLevel, "log-level", "l", "", "Log level: debug, info, warn, error (overrides log.level)")

	rootCmd.AddCommand(
		newEncodeCmd(g),
		newConvertCmd(),
		newDevicesCmd(g),
		newSendCmd(g),
		newServeCmd(g),
		newRemoteCmd(g),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

// load reads the configuration and builds the application logger.
func (g *globalFlags) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	log := logger.New(level, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	return cfg, log, nil
}
