// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scene

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestPublishIfChanged(t *testing.T) {
	client := &fakeClient{}
	obj := NewObject("Cube")
	pub := NewPublisher(client, obj, "scene/pose", time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sent, err := pub.PublishIfChanged(now)
	require.NoError(t, err)
	assert.True(t, sent, "first pose is always published")

	sent, err = pub.PublishIfChanged(now)
	require.NoError(t, err)
	assert.False(t, sent, "unchanged pose is skipped")

	obj.SetRotation(r3.Vec{X: 0.1, Y: 0.2, Z: -1.4})
	obj.AddPosition(r3.Vec{X: 0.5})

	sent, err = pub.PublishIfChanged(now)
	require.NoError(t, err)
	assert.True(t, sent)

	require.Equal(t, 2, client.count())
	last := client.msgs[1]
	assert.Equal(t, "scene/pose", last.topic)
	assert.True(t, last.retained)

	msg, err := DecodePose(last.payload)
	require.NoError(t, err)
	assert.Equal(t, "Cube", msg.Object)
	assert.Equal(t, "2026-03-01T12:00:00Z", msg.Time)
	assert.Equal(t, obj.Pose(), msg.Pose())
}

func TestPublishErrorRetries(t *testing.T) {
	client := &fakeClient{err: errors.New("broker gone")}
	pub := NewPublisher(client, NewObject("Cube"), "scene/pose", time.Second)

	_, err := pub.PublishIfChanged(time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")

	client.err = nil
	sent, err := pub.PublishIfChanged(time.Now())
	require.NoError(t, err)
	assert.True(t, sent, "a failed publish is retried on the next tick")
}

func TestPublisherRun(t *testing.T) {
	client := &fakeClient{}
	obj := NewObject("Cube")
	pub := NewPublisher(client, obj, "scene/pose", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	require.Eventually(t, func() bool { return client.count() >= 1 }, time.Second, 5*time.Millisecond)
	obj.AddPosition(r3.Vec{Z: 1})
	require.Eventually(t, func() bool { return client.count() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestDecodePoseError(t *testing.T) {
	_, err := DecodePose([]byte("{"))
	assert.Error(t, err)
}
