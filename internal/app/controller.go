// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/relabs-tech/pose_bridge/internal/scene"
)

// Controller is the command surface of the receiver: start and stop the
// stream listener and zero the active object. It owns at most one Listener.
type Controller struct {
	cfg         ListenerConfig
	object      *scene.Object
	stopTimeout time.Duration

	mu       sync.Mutex
	listener *Listener
}

// NewController creates a stopped controller writing into obj.
func NewController(cfg ListenerConfig, obj *scene.Object, stopTimeout time.Duration) *Controller {
	return &Controller{
		cfg:         cfg,
		object:      obj,
		stopTimeout: stopTimeout,
	}
}

// StartListening starts the stream listener. It does nothing if the
// listener is already running.
func (c *Controller) StartListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runningLocked() {
		return nil
	}

	l, err := StartListener(c.cfg, c.object)
	if err != nil {
		return err
	}
	c.listener = l
	return nil
}

// StopListening stops the stream listener, waiting at most until ctx
// expires for the stream connections to end. It does nothing if the
// listener is not running.
func (c *Controller) StopListening(ctx context.Context) error {
	c.mu.Lock()
	l := c.listener
	c.listener = nil
	c.mu.Unlock()

	if l == nil {
		return nil
	}
	// Status and Running stay responsive while the streams drain.
	return l.Stop(ctx)
}

// ZeroPose resets the active object's rotation and position.
func (c *Controller) ZeroPose() {
	c.object.Zero()
	log.Printf("control: zeroed %s", c.object.Name())
}

// Running reports whether the listener is serving.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *Controller) runningLocked() bool {
	if c.listener == nil {
		return false
	}
	select {
	case <-c.listener.Done():
		return false
	default:
		return true
	}
}

// Addr returns the listener address, or nil when stopped.
func (c *Controller) Addr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// Status is the JSON body of GET /api/status.
type Status struct {
	Running bool          `json:"running"`
	Addr    string        `json:"addr,omitempty"`
	Object  string        `json:"object"`
	Streams []SessionInfo `json:"streams"`
}

// Status reports the listener state and its active streams.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Running: c.runningLocked(),
		Object:  c.object.Name(),
		Streams: []SessionInfo{},
	}
	if c.listener != nil {
		st.Addr = c.listener.Addr().String()
		st.Streams = c.listener.Sessions()
	}
	return st
}

// Handler exposes the commands over HTTP:
//
//	POST /control/start
//	POST /control/stop
//	POST /control/zero
//	GET  /api/pose
//	GET  /api/status
func (c *Controller) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /control/start", func(w http.ResponseWriter, r *http.Request) {
		if err := c.StartListening(); err != nil {
			log.Printf("control: start error: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, c.Status())
	})

	mux.HandleFunc("POST /control/stop", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), c.stopTimeout)
		defer cancel()
		if err := c.StopListening(ctx); err != nil {
			log.Printf("control: stop error: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, c.Status())
	})

	mux.HandleFunc("POST /control/zero", func(w http.ResponseWriter, r *http.Request) {
		c.ZeroPose()
		writeJSON(w, scene.NewPoseMessage(c.object.Name(), c.object.Pose(), time.Now()))
	})

	mux.HandleFunc("GET /api/pose", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, scene.NewPoseMessage(c.object.Name(), c.object.Pose(), time.Now()))
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, c.Status())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("control: json encode error: %v", err)
	}
}
