// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock orientation source that generates smoothly
// changing angles, the way a phone held in hand reports them. The heading
// turns slowly and crosses the 0/360° boundary every 12 seconds.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (r3.Vec, error) {
	elapsed := time.Since(m.start).Seconds()

	// sensor-native order: Z (heading), Y (pitch), X (roll)
	return r3.Vec{
		X: 360 - math.Mod(elapsed*30, 360),
		Y: 15 * math.Cos(elapsed*0.7),
		Z: 20 * math.Sin(elapsed),
	}, nil
}
