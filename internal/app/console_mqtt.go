// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pose_bridge/internal/config"
	"github.com/relabs-tech/pose_bridge/internal/scene"
)

// RunConsoleMQTT prints every pose published on the pose topic.
func RunConsoleMQTT(cfg *config.Config) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	token := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printPose(os.Stdout, msg.Payload()); err != nil {
			log.Printf("console: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPose)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func printPose(w io.Writer, payload []byte) error {
	m, err := scene.DecodePose(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"[POSE] %-8s ROT x=%7.3f y=%7.3f z=%7.3f  POS x=%8.3f y=%8.3f z=%8.3f\n",
		m.Object,
		m.Rotation.X, m.Rotation.Y, m.Rotation.Z,
		m.Position.X, m.Position.Y, m.Position.Z,
	)
	return err
}
