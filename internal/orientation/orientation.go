// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMountOffset compensates the ~80° tilt of the phone holder on the
// desk, in radians.
const DefaultMountOffset = 1.40

// Source is anything that can provide raw orientation samples over time,
// in degrees and in the sensor-native Z,Y,X order.
type Source interface {
	Next() (r3.Vec, error)
}

// FromDegrees converts every axis of v from degrees to radians.
func FromDegrees(v r3.Vec) r3.Vec {
	return r3.Scale(math.Pi/180, v)
}

// Remap turns a sensor-native sample (Z,Y,X order) into scene X,Y,Z.
//
//	x = in.Z
//	y = in.Y
//	z = -in.X - mountOffset
func Remap(in r3.Vec, mountOffset float64) r3.Vec {
	return r3.Vec{
		X: in.Z,
		Y: in.Y,
		Z: -in.X - mountOffset,
	}
}

// Unwrap makes curr continuous with prev. An axis that dropped by more than
// π since prev is assumed to have crossed the wrap boundary and gets 2π
// added. Jumps in the other direction are left alone.
func Unwrap(prev, curr r3.Vec) r3.Vec {
	return r3.Vec{
		X: unwrapAxis(prev.X, curr.X),
		Y: unwrapAxis(prev.Y, curr.Y),
		Z: unwrapAxis(prev.Z, curr.Z),
	}
}

func unwrapAxis(prev, curr float64) float64 {
	if prev-curr > math.Pi {
		return curr + 2*math.Pi
	}
	return curr
}
