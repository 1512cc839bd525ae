// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/pose_bridge/internal/config"
	"github.com/relabs-tech/pose_bridge/internal/scene"
	"github.com/relabs-tech/pose_bridge/internal/stream"
)

// RunSerialListener reads one sensor stream from a serial port instead of a
// WebSocket (a sensor board wired over USB) and publishes the resulting
// pose over MQTT when enabled.
func RunSerialListener(cfg *config.Config, kind stream.Kind) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serialOpts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.SerialBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	log.Printf("serial: %s stream on %s at %d baud", kind, serialOpts.PortName, serialOpts.BaudRate)

	obj := scene.NewObject(cfg.SceneObject)

	if cfg.MQTTEnabled {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDListen)
		if err != nil {
			port.Close()
			return err
		}
		defer client.Disconnect(250)

		pub := scene.NewPublisher(client, obj, cfg.TopicPose,
			time.Duration(cfg.PosePublishInterval)*time.Millisecond)
		go pub.Run(ctx)
	}

	err = RunSerialStream(ctx, port, kind, ListenerConfigFrom(cfg).Stream, obj)
	if errors.Is(err, stream.ErrShutdownRequested) {
		return nil
	}
	return err
}

// RunSerialStream runs the processor for kind over newline delimited frames
// from port until the port fails, a frame is malformed or ctx is done. The
// port is closed on return.
func RunSerialStream(ctx context.Context, port io.ReadCloser, kind stream.Kind, cfg stream.Config, sink scene.Sink) error {
	proc, err := stream.NewProcessor(kind, cfg, sink)
	if err != nil {
		port.Close()
		return err
	}

	// Closing the port is the only way to unblock a pending read.
	stopClose := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stopClose() {
			port.Close()
		}
	}()

	err = proc.Run(ctx, stream.NewLineReader(port))
	log.Printf("serial: %s stream ended after %d frames: %v", kind, proc.Frames(), err)
	return err
}
