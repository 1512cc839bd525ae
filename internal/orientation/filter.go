// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "gonum.org/v1/gonum/spatial/r3"

// DefaultWindow is the number of samples averaged by the stream listener.
const DefaultWindow = 15

// MovingAverage is a simple moving average over the last n unwrapped angle
// samples. The window always holds exactly n entries: it starts filled with
// zero samples, so the output is biased toward zero until n real samples
// have arrived.
//
// A MovingAverage is owned by one stream and is not safe for concurrent use.
type MovingAverage struct {
	samples []r3.Vec
	head    int // index of the oldest entry
}

// NewMovingAverage creates a filter with a window of n samples.
func NewMovingAverage(n int) *MovingAverage {
	if n < 1 {
		n = 1
	}
	return &MovingAverage{samples: make([]r3.Vec, n)}
}

// Len returns the window size.
func (m *MovingAverage) Len() int {
	return len(m.samples)
}

// Newest returns the most recently stored (unwrapped) sample.
func (m *MovingAverage) Newest() r3.Vec {
	n := len(m.samples)
	return m.samples[(m.head+n-1)%n]
}

// Push unwraps s against the newest entry, evicts the oldest entry and
// stores the result as the newest. It returns the stored sample.
func (m *MovingAverage) Push(s r3.Vec) r3.Vec {
	s = Unwrap(m.Newest(), s)
	m.samples[m.head] = s
	m.head = (m.head + 1) % len(m.samples)
	return s
}

// Average returns the per-axis arithmetic mean of the whole window.
func (m *MovingAverage) Average() r3.Vec {
	var sum r3.Vec
	for _, s := range m.samples {
		sum = r3.Add(sum, s)
	}
	return r3.Scale(1/float64(len(m.samples)), sum)
}

// Samples returns the window contents oldest first.
func (m *MovingAverage) Samples() []r3.Vec {
	out := make([]r3.Vec, 0, len(m.samples))
	out = append(out, m.samples[m.head:]...)
	out = append(out, m.samples[:m.head]...)
	return out
}

// Reset refills the window with zero samples.
func (m *MovingAverage) Reset() {
	clear(m.samples)
	m.head = 0
}
