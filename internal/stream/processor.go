// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/pose_bridge/internal/imu"
	"github.com/relabs-tech/pose_bridge/internal/orientation"
	"github.com/relabs-tech/pose_bridge/internal/scene"
)

// Kind identifies one of the two sensor streams.
type Kind string

const (
	KindOrientation   Kind = "orientation"
	KindAccelerometer Kind = "accelerometer"
)

// Kinds lists every stream kind.
var Kinds = []Kind{KindOrientation, KindAccelerometer}

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOrientation, KindAccelerometer:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown stream kind %q (want orientation or accelerometer)", s)
}

// Config holds the signal processing constants of both streams.
type Config struct {
	FilterWindow int
	MountOffset  float64 // radians
	Integrator   imu.IntegratorConfig
}

// DefaultConfig returns the reference phone setup.
func DefaultConfig() Config {
	return Config{
		FilterWindow: orientation.DefaultWindow,
		MountOffset:  orientation.DefaultMountOffset,
		Integrator:   imu.DefaultIntegratorConfig(),
	}
}

// Processor consumes the frames of one connection.
type Processor interface {
	// Process handles a single frame.
	Process(frame string) error
	// Run reads and processes frames until the reader fails, a frame is
	// malformed or ctx is done. It always returns a non-nil error.
	Run(ctx context.Context, r FrameReader) error
	// Frames returns the number of frames processed so far.
	Frames() uint64
}

// NewProcessor creates the processor for kind.
func NewProcessor(kind Kind, cfg Config, sink scene.Sink) (Processor, error) {
	switch kind {
	case KindOrientation:
		return NewOrientationProcessor(cfg, sink), nil
	case KindAccelerometer:
		return NewAccelerationProcessor(cfg, sink), nil
	}
	return nil, fmt.Errorf("unknown stream kind %q", kind)
}

// OrientationProcessor smooths orientation frames and replaces the sink
// rotation with the moving average. Its filter history lives as long as
// the processor, i.e. one connection.
type OrientationProcessor struct {
	sink        scene.Sink
	filter      *orientation.MovingAverage
	mountOffset float64
	frames      atomic.Uint64
}

func NewOrientationProcessor(cfg Config, sink scene.Sink) *OrientationProcessor {
	return &OrientationProcessor{
		sink:        sink,
		filter:      orientation.NewMovingAverage(cfg.FilterWindow),
		mountOffset: cfg.MountOffset,
	}
}

// Process parses a degree frame in sensor order, remaps it and feeds the
// filter.
func (p *OrientationProcessor) Process(frame string) error {
	deg, err := ParseFrame(frame)
	if err != nil {
		return err
	}

	sample := orientation.Remap(orientation.FromDegrees(deg), p.mountOffset)
	p.filter.Push(sample)
	p.sink.SetRotation(p.filter.Average())
	p.frames.Add(1)
	return nil
}

// Average exposes the current filter output.
func (p *OrientationProcessor) Average() r3.Vec {
	return p.filter.Average()
}

func (p *OrientationProcessor) Run(ctx context.Context, r FrameReader) error {
	return run(ctx, r, p.Process)
}

func (p *OrientationProcessor) Frames() uint64 {
	return p.frames.Load()
}

// AccelerationProcessor integrates accelerometer frames into the sink
// position.
type AccelerationProcessor struct {
	sink       scene.Sink
	integrator *imu.Integrator
	frames     atomic.Uint64
}

func NewAccelerationProcessor(cfg Config, sink scene.Sink) *AccelerationProcessor {
	return &AccelerationProcessor{
		sink:       sink,
		integrator: imu.NewIntegrator(cfg.Integrator),
	}
}

func (p *AccelerationProcessor) Process(frame string) error {
	raw, err := ParseFrame(frame)
	if err != nil {
		return err
	}

	p.sink.AddPosition(p.integrator.Step(raw))
	p.frames.Add(1)
	return nil
}

func (p *AccelerationProcessor) Run(ctx context.Context, r FrameReader) error {
	return run(ctx, r, p.Process)
}

func (p *AccelerationProcessor) Frames() uint64 {
	return p.frames.Load()
}

// run is the receive loop shared by both processors. Cancelling ctx does
// not interrupt a blocked ReadFrame on its own; the owner of the connection
// must close it so the read returns.
func run(ctx context.Context, r FrameReader, process func(string) error) error {
	for {
		if ctx.Err() != nil {
			return ErrShutdownRequested
		}

		frame, err := r.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrShutdownRequested, err)
			}
			return err
		}

		if err := process(frame); err != nil {
			return err
		}
	}
}
