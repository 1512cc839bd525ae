// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/pose_bridge/internal/app"
	"github.com/relabs-tech/pose_bridge/internal/config"
	"github.com/relabs-tech/pose_bridge/internal/stream"
)

func main() {
	configPath := flag.String("config", "./pose_config.txt", "path to configuration file")
	kindFlag := flag.String("stream", "orientation", "stream carried by the serial port: orientation or accelerometer")
	flag.Parse()

	log.Println("starting pose-bridge serial receiver (serial → scene pose)")

	kind, err := stream.ParseKind(*kindFlag)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSerialListener(config.Get(), kind); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
