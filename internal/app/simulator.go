// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/pose_bridge/internal/imu"
	"github.com/relabs-tech/pose_bridge/internal/orientation"
	"github.com/relabs-tech/pose_bridge/internal/stream"
)

// SimulatorConfig configures a simulated phone stream.
type SimulatorConfig struct {
	URL      string // e.g. ws://localhost:5000/orientation
	Kind     stream.Kind
	Interval time.Duration
	Count    int // frames to send, 0 sends until ctx is done
}

// SimulatorURL builds the WebSocket URL of a stream endpoint.
func SimulatorURL(host string, port int, path string) string {
	return fmt.Sprintf("ws://%s:%d%s", host, port, path)
}

func sourceFor(kind stream.Kind) (func() (r3.Vec, error), error) {
	switch kind {
	case stream.KindOrientation:
		return orientation.NewMockSource().Next, nil
	case stream.KindAccelerometer:
		return imu.NewMockSource().Next, nil
	}
	return nil, fmt.Errorf("unknown stream kind %q", kind)
}

// RunSimulator dials a stream endpoint and sends mock sensor frames, the
// way the phone app does. It returns when Count frames were sent, ctx is
// done or the receiver goes away.
func RunSimulator(ctx context.Context, cfg SimulatorConfig) error {
	next, err := sourceFor(cfg.Kind)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	defer conn.Close()
	log.Printf("simulator: connected to %s", cfg.URL)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	sent := 0
	for cfg.Count == 0 || sent < cfg.Count {
		select {
		case <-ctx.Done():
			closeNormal(conn)
			log.Printf("simulator: stopped after %d frames", sent)
			return nil
		case <-ticker.C:
		}

		v, err := next()
		if err != nil {
			log.Printf("error from mock source: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(stream.FormatFrame(v))); err != nil {
			return fmt.Errorf("send frame: %w", err)
		}
		sent++
	}

	closeNormal(conn)
	log.Printf("simulator: sent %d frames", sent)
	return nil
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
