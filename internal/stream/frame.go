// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package stream

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrConnectionClosed ends a stream when the peer disconnects or the
	// transport fails.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrMalformedFrame ends a stream on a frame that is not exactly three
	// comma separated numbers.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrShutdownRequested ends a stream when the listener is stopped.
	ErrShutdownRequested = errors.New("shutdown requested")
)

// ParseFrame parses a "a,b,c" text frame. Whitespace around each number is
// ignored. NaN and infinities are rejected.
func ParseFrame(text string) (r3.Vec, error) {
	fields := strings.Split(strings.TrimSpace(text), ",")
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("%w: want 3 fields, got %d in %q", ErrMalformedFrame, len(fields), text)
	}

	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("%w: field %d of %q: %w", ErrMalformedFrame, i, text, err)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return r3.Vec{}, fmt.Errorf("%w: field %d of %q is not finite", ErrMalformedFrame, i, text)
		}
		v[i] = x
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// FormatFrame renders v as a text frame.
func FormatFrame(v r3.Vec) string {
	return strconv.FormatFloat(v.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(v.Y, 'f', -1, 64) + "," +
		strconv.FormatFloat(v.Z, 'f', -1, 64)
}
