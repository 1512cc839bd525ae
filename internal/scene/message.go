// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scene

import (
	"encoding/json"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is the JSON form of a 3-vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PoseMessage is the JSON schema published for a scene object pose.
type PoseMessage struct {
	Object   string `json:"object"`
	Rotation Vec    `json:"rotation"` // radians
	Position Vec    `json:"position"`
	Time     string `json:"time"` // RFC3339Nano
}

func toVec(v r3.Vec) Vec {
	return Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func (v Vec) R3() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// NewPoseMessage builds the message for a pose of the named object.
func NewPoseMessage(name string, p Pose, t time.Time) PoseMessage {
	return PoseMessage{
		Object:   name,
		Rotation: toVec(p.Rotation),
		Position: toVec(p.Position),
		Time:     t.Format(time.RFC3339Nano),
	}
}

// Pose converts the message back to a Pose.
func (m PoseMessage) Pose() Pose {
	return Pose{Rotation: m.Rotation.R3(), Position: m.Position.R3()}
}

// DecodePose parses a published pose payload.
func DecodePose(payload []byte) (PoseMessage, error) {
	var m PoseMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return PoseMessage{}, fmt.Errorf("decode pose: %w", err)
	}
	return m, nil
}
