// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scene

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is the rotation (radians, XYZ Euler) and position of a scene object.
type Pose struct {
	Rotation r3.Vec
	Position r3.Vec
}

// Sink is the part of a scene object the stream processors write to.
// Rotation is replaced on every orientation frame, position is accumulated
// on every acceleration frame.
type Sink interface {
	SetRotation(r3.Vec)
	AddPosition(r3.Vec)
}

// Object is the active scene object. It is written by the orientation and
// accelerometer streams concurrently and read by publishers and the control
// API, so every access goes through mu.
type Object struct {
	name string

	mu      sync.RWMutex
	pose    Pose
	version uint64
}

// NewObject creates an object at the origin with zero rotation.
func NewObject(name string) *Object {
	return &Object{name: name}
}

func (o *Object) Name() string {
	return o.name
}

// SetRotation replaces the rotation.
func (o *Object) SetRotation(rot r3.Vec) {
	o.mu.Lock()
	o.pose.Rotation = rot
	o.version++
	o.mu.Unlock()
}

// AddPosition moves the object by delta.
func (o *Object) AddPosition(delta r3.Vec) {
	o.mu.Lock()
	o.pose.Position = r3.Add(o.pose.Position, delta)
	o.version++
	o.mu.Unlock()
}

// Zero resets rotation and position.
func (o *Object) Zero() {
	o.mu.Lock()
	o.pose = Pose{}
	o.version++
	o.mu.Unlock()
}

// Pose returns a snapshot of the current pose.
func (o *Object) Pose() Pose {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pose
}

// Snapshot returns the pose together with its version. The version grows by
// one on every write.
func (o *Object) Snapshot() (Pose, uint64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pose, o.version
}

// Version returns the number of writes applied so far.
func (o *Object) Version() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.version
}
