// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/pose_bridge/internal/config"
	"github.com/relabs-tech/pose_bridge/internal/imu"
	"github.com/relabs-tech/pose_bridge/internal/scene"
	"github.com/relabs-tech/pose_bridge/internal/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // phones connect from whatever page serves the sensor script
	},
}

var (
	errStreamBusy = errors.New("stream already has an active connection")
	errStopping   = errors.New("listener is stopping")
)

// ListenerConfig configures a stream Listener.
type ListenerConfig struct {
	Addr            string // host:port, port 0 picks a free port
	OrientationPath string
	AccelPath       string
	Stream          stream.Config
}

// ListenerConfigFrom maps the application configuration.
func ListenerConfigFrom(cfg *config.Config) ListenerConfig {
	return ListenerConfig{
		Addr:            cfg.ListenAddr(),
		OrientationPath: cfg.OrientationPath,
		AccelPath:       cfg.AccelPath,
		Stream: stream.Config{
			FilterWindow: cfg.FilterWindow,
			MountOffset:  cfg.MountOffsetRad,
			Integrator: imu.IntegratorConfig{
				Bias:   r3.Vec{X: cfg.AccelBiasX, Y: cfg.AccelBiasY, Z: cfg.AccelBiasZ},
				Period: cfg.SamplePeriodS,
				Scale:  cfg.DisplayScale,
			},
		},
	}
}

// SessionInfo describes an active stream connection.
type SessionInfo struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Remote string    `json:"remote"`
	Since  time.Time `json:"since"`
	Frames uint64    `json:"frames"`
}

type session struct {
	id      string
	kind    stream.Kind
	remote  string
	started time.Time

	mu   sync.Mutex
	proc stream.Processor
}

func (s *session) info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := SessionInfo{ID: s.id, Kind: string(s.kind), Remote: s.remote, Since: s.started}
	if s.proc != nil {
		info.Frames = s.proc.Frames()
	}
	return info
}

// Listener serves the orientation and accelerometer WebSocket endpoints.
// Each stream kind accepts one connection at a time and runs its processor
// in the connection's handler goroutine until the peer disconnects, a frame
// is malformed or the listener is stopped.
type Listener struct {
	cfg  ListenerConfig
	sink scene.Sink
	srv  *http.Server
	ln   net.Listener

	ctx    context.Context // cancelled by Stop, closes every stream connection
	cancel context.CancelFunc

	mu       sync.Mutex
	active   map[stream.Kind]*session
	stopping bool
	sessions sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

// StartListener binds cfg.Addr and starts serving in the background.
// Binding errors are returned here, not from a goroutine.
func StartListener(cfg ListenerConfig, sink scene.Sink) (*Listener, error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		cfg:    cfg,
		sink:   sink,
		ln:     ln,
		ctx:    ctx,
		cancel: cancel,
		active: make(map[stream.Kind]*session),
		done:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.OrientationPath, l.handleStream(stream.KindOrientation))
	mux.HandleFunc(cfg.AccelPath, l.handleStream(stream.KindAccelerometer))
	l.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer close(l.done)
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("listener: serve error: %v", err)
		}
	}()

	log.Printf("listener: sensor data receiver on %s (%s, %s)", ln.Addr(), cfg.OrientationPath, cfg.AccelPath)
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Done is closed once the HTTP server has stopped serving.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Sessions returns the active stream connections sorted by kind.
func (l *Listener) Sessions() []SessionInfo {
	l.mu.Lock()
	out := make([]SessionInfo, 0, len(l.active))
	for _, s := range l.active {
		out = append(out, s.info())
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Stop closes the listening socket and every active stream connection and
// waits for the stream goroutines to finish, or for ctx to expire. Calling
// Stop more than once returns the first result.
func (l *Listener) Stop(ctx context.Context) error {
	l.stopOnce.Do(func() {
		log.Println("listener: stopping sensor data receiver")

		l.mu.Lock()
		l.stopping = true
		l.mu.Unlock()

		// Hijacked WebSocket connections are not tracked by http.Server, so
		// they are closed through l.ctx.
		l.cancel()
		err := l.srv.Shutdown(ctx)

		finished := make(chan struct{})
		go func() {
			l.sessions.Wait()
			<-l.done
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			if err == nil {
				err = fmt.Errorf("waiting for stream connections: %w", ctx.Err())
			}
		}
		l.stopErr = err
		log.Println("listener: stopped")
	})
	return l.stopErr
}

func (l *Listener) claim(kind stream.Kind, remote string) (*session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopping {
		return nil, errStopping
	}
	if cur, ok := l.active[kind]; ok {
		return nil, fmt.Errorf("%w (%s from %s)", errStreamBusy, kind, cur.remote)
	}

	s := &session{
		id:      uuid.NewString(),
		kind:    kind,
		remote:  remote,
		started: time.Now(),
	}
	l.active[kind] = s
	l.sessions.Add(1)
	return s, nil
}

func (l *Listener) release(s *session) {
	l.mu.Lock()
	if l.active[s.kind] == s {
		delete(l.active, s.kind)
	}
	l.mu.Unlock()
	l.sessions.Done()
}

func (l *Listener) handleStream(kind stream.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := l.claim(kind, r.RemoteAddr)
		if err != nil {
			status := http.StatusConflict
			if errors.Is(err, errStopping) {
				status = http.StatusServiceUnavailable
			}
			log.Printf("listener: rejecting %s connection from %s: %v", kind, r.RemoteAddr, err)
			http.Error(w, err.Error(), status)
			return
		}
		defer l.release(s)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("listener: %s websocket upgrade error: %v", kind, err)
			return
		}
		defer conn.Close()

		stopClose := context.AfterFunc(l.ctx, func() {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "receiver stopping")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			conn.Close()
		})
		defer stopClose()

		proc, err := stream.NewProcessor(kind, l.cfg.Stream, l.sink)
		if err != nil {
			log.Printf("listener: %v", err)
			return
		}
		s.mu.Lock()
		s.proc = proc
		s.mu.Unlock()

		log.Printf("listener: %s stream %s connected from %s", kind, s.id, s.remote)
		err = proc.Run(l.ctx, stream.NewWSReader(conn))
		if errors.Is(err, stream.ErrMalformedFrame) {
			msg := websocket.FormatCloseMessage(websocket.CloseInvalidFramePayloadData, "malformed frame")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		logStreamEnd(s, proc.Frames(), err)
	}
}

func logStreamEnd(s *session, frames uint64, err error) {
	elapsed := time.Since(s.started).Round(time.Millisecond)
	switch {
	case errors.Is(err, stream.ErrShutdownRequested):
		log.Printf("listener: %s stream %s stopped by shutdown after %d frames (%s)", s.kind, s.id, frames, elapsed)
	case errors.Is(err, stream.ErrMalformedFrame):
		log.Printf("listener: %s stream %s dropped: %v", s.kind, s.id, err)
	case isNormalClose(err):
		log.Printf("listener: %s stream %s disconnected after %d frames (%s)", s.kind, s.id, frames, elapsed)
	default:
		log.Printf("listener: %s stream %s ended after %d frames: %v", s.kind, s.id, frames, err)
	}
}

func isNormalClose(err error) bool {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	return false
}
