// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package stream

import (
	"context"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/pose_bridge/internal/scene"
)

// sliceReader replays frames and then reports a closed connection.
type sliceReader struct {
	frames []string
}

func (r *sliceReader) ReadFrame() (string, error) {
	if len(r.frames) == 0 {
		return "", ErrConnectionClosed
	}
	f := r.frames[0]
	r.frames = r.frames[1:]
	return f, nil
}

// blockingReader blocks until closed, like a socket with no traffic.
type blockingReader struct {
	once   sync.Once
	closed chan struct{}
}

func newBlockingReader() *blockingReader {
	return &blockingReader{closed: make(chan struct{})}
}

func (r *blockingReader) ReadFrame() (string, error) {
	<-r.closed
	return "", io.ErrClosedPipe
}

func (r *blockingReader) Close() {
	r.once.Do(func() { close(r.closed) })
}

func repeat(frame string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = frame
	}
	return out
}

func TestOrientationZeroFramesConverge(t *testing.T) {
	obj := scene.NewObject("Cube")
	p := NewOrientationProcessor(DefaultConfig(), obj)

	err := p.Run(context.Background(), &sliceReader{frames: repeat("0,0,0", 15)})
	require.ErrorIs(t, err, ErrConnectionClosed)
	assert.Equal(t, uint64(15), p.Frames())

	rot := obj.Pose().Rotation
	assert.InDelta(t, 0, rot.X, 1e-9)
	assert.InDelta(t, 0, rot.Y, 1e-9)
	assert.InDelta(t, -1.40, rot.Z, 1e-9)
}

func TestOrientationFirstFrameBiasedTowardZero(t *testing.T) {
	obj := scene.NewObject("Cube")
	p := NewOrientationProcessor(DefaultConfig(), obj)

	// sensor order Z,Y,X: 30° ends up on X, 15° on Y, -(-45°) - 1.40 on Z
	require.NoError(t, p.Process("-45,15,30"))

	rad := math.Pi / 180
	rot := obj.Pose().Rotation
	assert.InDelta(t, 30*rad/15, rot.X, 1e-9)
	assert.InDelta(t, 15*rad/15, rot.Y, 1e-9)
	assert.InDelta(t, (45*rad-1.40)/15, rot.Z, 1e-9)
	assert.Equal(t, rot, p.Average())
}

func TestOrientationMalformedFrameEndsStream(t *testing.T) {
	obj := scene.NewObject("Cube")
	p := NewOrientationProcessor(DefaultConfig(), obj)

	err := p.Run(context.Background(), &sliceReader{frames: []string{"0,0,0", "1,2", "0,0,0"}})
	require.ErrorIs(t, err, ErrMalformedFrame)
	assert.Equal(t, uint64(1), p.Frames(), "nothing after the malformed frame is processed")
}

func TestAccelerationBiasOnlyFrames(t *testing.T) {
	obj := scene.NewObject("Cube")
	p := NewAccelerationProcessor(DefaultConfig(), obj)

	err := p.Run(context.Background(), &sliceReader{frames: repeat("0.04678,0.10957,9.80338", 10)})
	require.ErrorIs(t, err, ErrConnectionClosed)

	pos := obj.Pose().Position
	assert.InDelta(t, 0, pos.X, 1e-12)
	assert.InDelta(t, 0, pos.Y, 1e-12)
	assert.InDelta(t, 0, pos.Z, 1e-12)
	assert.Equal(t, r3.Vec{}, obj.Pose().Rotation)
}

func TestAccelerationAccumulates(t *testing.T) {
	obj := scene.NewObject("Cube")
	p := NewAccelerationProcessor(DefaultConfig(), obj)

	// +1 on device Y after bias correction -> +1 on scene X
	for range 3 {
		require.NoError(t, p.Process("0.04678,1.10957,9.80338"))
	}

	k := 0.1063 * 0.1063 / 2 * 10
	pos := obj.Pose().Position
	assert.InDelta(t, 3*k, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
	assert.InDelta(t, 0, pos.Z, 1e-9)
	assert.Equal(t, uint64(3), p.Frames())
}

func TestAccelerationMalformedFrame(t *testing.T) {
	p := NewAccelerationProcessor(DefaultConfig(), scene.NewObject("Cube"))
	err := p.Run(context.Background(), &sliceReader{frames: []string{"x,y,z"}})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestAccelerationNonFiniteFrameLeavesPositionIntact(t *testing.T) {
	obj := scene.NewObject("Cube")
	p := NewAccelerationProcessor(DefaultConfig(), obj)
	require.NoError(t, p.Process("0.04678,1.10957,9.80338"))
	before := obj.Pose()

	for _, frame := range []string{"NaN,0,9.8", "Inf,0,9.8", "0,-Inf,9.8"} {
		err := p.Run(context.Background(), &sliceReader{frames: []string{frame}})
		assert.ErrorIs(t, err, ErrMalformedFrame, frame)
	}

	after := obj.Pose()
	assert.Equal(t, before, after)
	assert.False(t, math.IsNaN(after.Position.X) || math.IsNaN(after.Position.Y) || math.IsNaN(after.Position.Z))
	assert.Equal(t, uint64(1), p.Frames())
}

func TestRunStopsWhenReaderClosedOnShutdown(t *testing.T) {
	p := NewOrientationProcessor(DefaultConfig(), scene.NewObject("Cube"))
	r := newBlockingReader()

	ctx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, r.Close)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, r) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrShutdownRequested)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewAccelerationProcessor(DefaultConfig(), scene.NewObject("Cube"))
	err := p.Run(ctx, &sliceReader{frames: []string{"1,2,3"}})
	assert.ErrorIs(t, err, ErrShutdownRequested)
	assert.Zero(t, p.Frames())
}

func TestNewProcessor(t *testing.T) {
	obj := scene.NewObject("Cube")

	p, err := NewProcessor(KindOrientation, DefaultConfig(), obj)
	require.NoError(t, err)
	assert.IsType(t, &OrientationProcessor{}, p)

	p, err = NewProcessor(KindAccelerometer, DefaultConfig(), obj)
	require.NoError(t, err)
	assert.IsType(t, &AccelerationProcessor{}, p)

	_, err = NewProcessor(Kind("gyro"), DefaultConfig(), obj)
	assert.Error(t, err)
}
