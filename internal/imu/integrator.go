// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Idle offsets measured on the reference phone lying flat, in m/s².
var DefaultBias = r3.Vec{X: 0.04678, Y: 0.10957, Z: 9.80338}

const (
	// DefaultPeriod is the interval between accelerometer frames, in seconds.
	DefaultPeriod = 0.1063
	// DefaultScale magnifies displacement so hand motion is visible in the scene.
	DefaultScale = 10
)

// IntegratorConfig holds the constants of the acceleration pipeline.
type IntegratorConfig struct {
	Bias   r3.Vec
	Period float64 // seconds
	Scale  float64
}

// DefaultIntegratorConfig returns the reference phone settings.
func DefaultIntegratorConfig() IntegratorConfig {
	return IntegratorConfig{
		Bias:   DefaultBias,
		Period: DefaultPeriod,
		Scale:  DefaultScale,
	}
}

// Integrator turns one acceleration sample into a displacement delta,
// assuming the acceleration stays constant over one sample period
// (s = ½at²). There is no velocity state and no drift correction: deltas
// are meant to be accumulated open loop by the caller.
type Integrator struct {
	cfg IntegratorConfig
	k   float64 // Period² / 2 * Scale
}

// NewIntegrator creates an Integrator for cfg.
func NewIntegrator(cfg IntegratorConfig) *Integrator {
	return &Integrator{
		cfg: cfg,
		k:   cfg.Period * cfg.Period / 2 * cfg.Scale,
	}
}

// Config returns the integrator constants.
func (in *Integrator) Config() IntegratorConfig {
	return in.cfg
}

// Correct subtracts the idle bias from a raw sample.
func (in *Integrator) Correct(raw r3.Vec) r3.Vec {
	return r3.Sub(raw, in.cfg.Bias)
}

// Remap rotates a device-frame sample into the scene frame for the phone
// mounting used on the desk: x, y, z = y, -x, z.
func Remap(a r3.Vec) r3.Vec {
	return r3.Vec{X: a.Y, Y: -a.X, Z: a.Z}
}

// Displacement returns a * Period² / 2 * Scale per axis.
func (in *Integrator) Displacement(a r3.Vec) r3.Vec {
	return r3.Scale(in.k, a)
}

// Step runs the full pipeline: bias correction, axis remap, integration.
func (in *Integrator) Step(raw r3.Vec) r3.Vec {
	return in.Displacement(Remap(in.Correct(raw)))
}
