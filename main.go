// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// SmartIR - IR/RF climate command encoder and dispatcher
//
// Encodes climate commands into the IR frames an appliance's own remote
// sends, converts codes between blaster encodings, and delivers them through
// Home Assistant, MQTT, HTTP and serial transports.

package main

import (
	"os"

	"github.com/Thermoquad/smartir/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
