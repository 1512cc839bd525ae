// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Source is anything that can provide raw accelerometer samples over time.
type Source interface {
	Next() (r3.Vec, error)
}

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock accelerometer that reports the idle bias
// plus a slow back-and-forth push along the device X axis.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (r3.Vec, error) {
	elapsed := time.Since(m.start).Seconds()

	return r3.Add(DefaultBias, r3.Vec{
		X: 0.5 * math.Sin(elapsed*2),
		Y: 0.1 * math.Cos(elapsed),
	}), nil
}
