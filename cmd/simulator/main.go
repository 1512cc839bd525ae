// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/relabs-tech/pose_bridge/internal/app"
	"github.com/relabs-tech/pose_bridge/internal/config"
	"github.com/relabs-tech/pose_bridge/internal/stream"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults are used when empty)")
	host := flag.String("host", "localhost", "receiver host")
	kindFlag := flag.String("stream", "both", "stream to simulate: orientation, accelerometer or both")
	count := flag.Int("count", 0, "frames per stream, 0 runs until interrupted")
	flag.Parse()

	log.Println("starting pose-bridge phone simulator (mock → WebSocket)")

	if *configPath == "" {
		config.InitDefault()
	} else if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	kinds := stream.Kinds
	if *kindFlag != "both" {
		kind, err := stream.ParseKind(*kindFlag)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		kinds = []stream.Kind{kind}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, kind := range kinds {
		path := cfg.OrientationPath
		if kind == stream.KindAccelerometer {
			path = cfg.AccelPath
		}
		simCfg := app.SimulatorConfig{
			URL:      app.SimulatorURL(*host, cfg.ListenPort, path),
			Kind:     kind,
			Interval: time.Duration(cfg.SimInterval) * time.Millisecond,
			Count:    *count,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.RunSimulator(ctx, simCfg); err != nil {
				log.Printf("simulator: %s: %v", simCfg.Kind, err)
			}
		}()
	}
	wg.Wait()
}
