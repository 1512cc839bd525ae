// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/pose_bridge/internal/config"
	"github.com/relabs-tech/pose_bridge/internal/scene"
)

// RunListener runs the sensor data receiver until SIGINT/SIGTERM: the
// stream listener, the control API and, if enabled, the MQTT pose
// publisher.
func RunListener(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obj := scene.NewObject(cfg.SceneObject)
	ctrl := NewController(ListenerConfigFrom(cfg), obj, cfg.ShutdownDuration())

	// Pose publisher
	pubDone := make(chan struct{})
	if cfg.MQTTEnabled {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDListen)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)

		pub := scene.NewPublisher(client, obj, cfg.TopicPose,
			time.Duration(cfg.PosePublishInterval)*time.Millisecond)
		go func() {
			defer close(pubDone)
			pub.Run(ctx)
		}()
		log.Printf("receiver: publishing %s pose to %s", obj.Name(), cfg.TopicPose)
	} else {
		close(pubDone)
	}

	if cfg.AutoStart {
		if err := ctrl.StartListening(); err != nil {
			return err
		}
	} else {
		log.Println("receiver: listener not started, POST /control/start to begin")
	}

	// Control API
	controlSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ControlPort),
		Handler:           ctrl.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	controlErr := make(chan error, 1)
	go func() {
		log.Printf("receiver: control API listening on %s", controlSrv.Addr)
		if err := controlSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			controlErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Println("receiver: shutting down")
	case runErr = <-controlErr:
		log.Printf("receiver: control API error: %v", runErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDuration())
	defer cancel()

	if err := ctrl.StopListening(shutdownCtx); err != nil {
		log.Printf("receiver: listener stop error: %v", err)
	}
	if err := controlSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("receiver: control API shutdown error: %v", err)
	}
	<-pubDone

	return runErr
}
