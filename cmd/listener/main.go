// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/pose_bridge/internal/app"
	"github.com/relabs-tech/pose_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults are used when empty)")
	flag.Parse()

	log.Println("starting pose-bridge sensor data receiver (WebSocket → scene pose)")

	// Load configuration
	if *configPath == "" {
		config.InitDefault()
	} else if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunListener(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
