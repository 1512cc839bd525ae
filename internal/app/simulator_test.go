// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/pose_bridge/internal/stream"
)

func TestSimulatorURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:5000/orientation", SimulatorURL("localhost", 5000, "/orientation"))
}

func TestRunSimulatorFeedsListener(t *testing.T) {
	l, obj := startTestListener(t)

	for _, tc := range []struct {
		kind stream.Kind
		path string
	}{
		{stream.KindOrientation, "/orientation"},
		{stream.KindAccelerometer, "/accelerometer"},
	} {
		err := RunSimulator(context.Background(), SimulatorConfig{
			URL:      "ws://" + l.Addr().String() + tc.path,
			Kind:     tc.kind,
			Interval: time.Millisecond,
			Count:    5,
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return obj.Version() == 10 }, 2*time.Second, 5*time.Millisecond)
	assert.NotZero(t, obj.Pose().Rotation.Z)
}

func TestRunSimulatorStopsOnCancel(t *testing.T) {
	l, _ := startTestListener(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := RunSimulator(ctx, SimulatorConfig{
		URL:      "ws://" + l.Addr().String() + "/accelerometer",
		Kind:     stream.KindAccelerometer,
		Interval: 5 * time.Millisecond,
	})
	assert.NoError(t, err)
}

func TestRunSimulatorErrors(t *testing.T) {
	err := RunSimulator(context.Background(), SimulatorConfig{Kind: "gyro", Interval: time.Millisecond})
	assert.Error(t, err)

	err = RunSimulator(context.Background(), SimulatorConfig{
		URL:      "ws://127.0.0.1:1/orientation",
		Kind:     stream.KindOrientation,
		Interval: time.Millisecond,
	})
	assert.Error(t, err)
}
