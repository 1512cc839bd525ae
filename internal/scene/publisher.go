// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publishing waits at most this long for the broker to ack a pose.
const publishTimeout = 2 * time.Second

// publishClient is the subset of mqtt.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher periodically publishes the pose of an Object to an MQTT topic so
// an external 3D host can apply it to its active object.
type Publisher struct {
	client   publishClient
	object   *Object
	topic    string
	interval time.Duration

	lastVersion uint64
	published   bool
}

// NewPublisher creates a publisher for obj. Poses are published retained
// with QoS 0, at most once per interval and only when the pose changed.
func NewPublisher(client publishClient, obj *Object, topic string, interval time.Duration) *Publisher {
	return &Publisher{
		client:   client,
		object:   obj,
		topic:    topic,
		interval: interval,
	}
}

// Run publishes until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if _, err := p.PublishIfChanged(t); err != nil {
				log.Printf("publisher: %v", err)
			}
		}
	}
}

// PublishIfChanged publishes the current pose unless it was already
// published. It reports whether a message was sent.
func (p *Publisher) PublishIfChanged(t time.Time) (bool, error) {
	pose, version := p.object.Snapshot()
	if p.published && version == p.lastVersion {
		return false, nil
	}

	payload, err := json.Marshal(NewPoseMessage(p.object.Name(), pose, t))
	if err != nil {
		return false, fmt.Errorf("json marshal error (pose): %w", err)
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return false, fmt.Errorf("MQTT publish timeout (%s)", p.topic)
	}
	if token.Error() != nil {
		return false, fmt.Errorf("MQTT publish error (%s): %w", p.topic, token.Error())
	}

	p.lastVersion = version
	p.published = true
	return true, nil
}
