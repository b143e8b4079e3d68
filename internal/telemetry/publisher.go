// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Publisher sends JSON payloads to named topics.
type Publisher interface {
	Publish(topic string, v any) error
}

// NewSessionID identifies one therapy session across all payloads.
func NewSessionID() string { return uuid.New().String() }

// PublishTimeout bounds how long Publish waits for the client. Keep it
// under one inference interval.
const PublishTimeout = 20 * time.Millisecond

// MQTT publishes over a paho client.
type MQTT struct {
	client   mqtt.Client
	retained bool
	timeout  time.Duration
}

// Connect opens a client on broker and waits for the connection.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s as %s", broker, clientID)
	return client, nil
}

// NewMQTT wraps a connected client. Retained messages let late
// subscribers see the last status immediately.
func NewMQTT(client mqtt.Client, retained bool) *MQTT {
	return &MQTT{client: client, retained: retained, timeout: PublishTimeout}
}

// Publish marshals v and waits up to PublishTimeout for the client to
// take it. A timeout is an error; the message may still go out later.
func (m *MQTT) Publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := m.client.Publish(topic, 0, m.retained, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish %s: no completion after %v", topic, m.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects, giving in-flight messages 250 ms.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

// Subscribe decodes every message on topic into a T and hands it to fn.
// Malformed payloads are logged and dropped.
func Subscribe[T any](client mqtt.Client, topic string, fn func(T)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("telemetry: %s unmarshal error: %v", topic, err)
			return
		}
		fn(v)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	log.Printf("telemetry: subscribed to %s", topic)
	return nil
}
