// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestObjectRotationReplacesPositionAccumulates(t *testing.T) {
	obj := NewObject("Cube")
	assert.Equal(t, "Cube", obj.Name())
	assert.Equal(t, Pose{}, obj.Pose())

	obj.SetRotation(r3.Vec{X: 1, Y: 2, Z: 3})
	obj.SetRotation(r3.Vec{X: 0.5, Y: 0, Z: -1})
	obj.AddPosition(r3.Vec{X: 1, Y: 1, Z: 1})
	obj.AddPosition(r3.Vec{X: 0.5, Y: -2, Z: 0})

	assert.Equal(t, Pose{
		Rotation: r3.Vec{X: 0.5, Y: 0, Z: -1},
		Position: r3.Vec{X: 1.5, Y: -1, Z: 1},
	}, obj.Pose())
	assert.Equal(t, uint64(4), obj.Version())
}

func TestObjectZero(t *testing.T) {
	obj := NewObject("Cube")
	obj.SetRotation(r3.Vec{X: 1})
	obj.AddPosition(r3.Vec{Y: 1})

	obj.Zero()

	pose, version := obj.Snapshot()
	assert.Equal(t, Pose{}, pose)
	assert.Equal(t, uint64(3), version)
}

func TestObjectConcurrentWriters(t *testing.T) {
	obj := NewObject("Cube")
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range n {
			obj.SetRotation(r3.Vec{X: float64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for range n {
			obj.AddPosition(r3.Vec{X: 1, Y: 2, Z: 3})
		}
	}()
	wg.Wait()

	pose := obj.Pose()
	assert.Equal(t, r3.Vec{X: n - 1}, pose.Rotation)
	assert.Equal(t, r3.Vec{X: n, Y: 2 * n, Z: 3 * n}, pose.Position)
	assert.Equal(t, uint64(2*n), obj.Version())
}
