// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/fes_gait/internal/config"
	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

const recentTransitions = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// StreamMessage is what the dashboard websocket pushes.
type StreamMessage struct {
	Type       string                     `json:"type"` // status, transition
	Status     *telemetry.Status          `json:"status,omitempty"`
	Transition *telemetry.TransitionEvent `json:"transition,omitempty"`
}

// dashboard keeps the latest controller view and fans it out to browsers.
type dashboard struct {
	mu          sync.RWMutex
	status      telemetry.Status
	haveStatus  bool
	transitions []telemetry.TransitionEvent

	clientsMu sync.Mutex
	clients   map[chan StreamMessage]struct{}
}

func newDashboard() *dashboard {
	return &dashboard{clients: map[chan StreamMessage]struct{}{}}
}

func (d *dashboard) onStatus(s telemetry.Status) {
	d.mu.Lock()
	d.status = s
	d.haveStatus = true
	d.mu.Unlock()
	d.broadcast(StreamMessage{Type: "status", Status: &s})
}

func (d *dashboard) onTransition(ev telemetry.TransitionEvent) {
	d.mu.Lock()
	d.transitions = append(d.transitions, ev)
	if n := len(d.transitions); n > recentTransitions {
		d.transitions = append(d.transitions[:0], d.transitions[n-recentTransitions:]...)
	}
	d.mu.Unlock()
	d.broadcast(StreamMessage{Type: "transition", Transition: &ev})
}

// broadcast drops messages for clients that fall behind rather than
// blocking the MQTT callback.
func (d *dashboard) broadcast(msg StreamMessage) {
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	for ch := range d.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (d *dashboard) subscribe() chan StreamMessage {
	ch := make(chan StreamMessage, 32)
	d.clientsMu.Lock()
	d.clients[ch] = struct{}{}
	d.clientsMu.Unlock()
	return ch
}

func (d *dashboard) unsubscribe(ch chan StreamMessage) {
	d.clientsMu.Lock()
	delete(d.clients, ch)
	d.clientsMu.Unlock()
}

func (d *dashboard) handleStatus(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.haveStatus {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, d.status)
}

func (d *dashboard) handleTransitions(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]telemetry.TransitionEvent, len(d.transitions))
	copy(out, d.transitions)
	writeJSON(w, out)
}

// handleStream upgrades to a websocket and pushes every status and
// transition until the browser goes away.
func (d *dashboard) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := d.subscribe()
	defer d.unsubscribe(ch)

	// Reader goroutine only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	d.mu.RLock()
	initial, have := d.status, d.haveStatus
	d.mu.RUnlock()
	if have {
		if err := conn.WriteJSON(StreamMessage{Type: "status", Status: &initial}); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case msg := <-ch:
			conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

func (d *dashboard) routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/transitions", d.handleTransitions)
	mux.HandleFunc("/ws", d.handleStream)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// RunWeb serves the therapist dashboard from ./web and the live API.
func RunWeb() error {
	cfg := config.Get()
	d := newDashboard()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := telemetry.Subscribe(client, cfg.TopicStatus, d.onStatus); err != nil {
		return err
	}
	if err := telemetry.Subscribe(client, cfg.TopicTransitions, d.onTransition); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, d.routes("web"))
}
