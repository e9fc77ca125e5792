package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	err       error
	sent      []published
}

func (f *fakePublisher) IsConnected() bool { return f.connected }

func (f *fakePublisher) Publish(topic string, _ byte, _ bool, payload any) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{topic, payload.([]byte)})
	return &fakeToken{err: f.err}
}

func (f *fakePublisher) get() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

func TestMQTTSinkPublishes(t *testing.T) {
	pub := &fakePublisher{connected: true}
	sink := &MQTTSink{client: pub, prefix: "obsidian", log: testLogger()}

	bus := NewBus(testLogger())
	sink.Attach(bus)
	bus.Emit(context.Background(), New(EventPlayerJoin, "node-1", PlayerPayload{UUID: "u-1", Name: "Alice"}))
	bus.Stop()

	sent := pub.get()
	if len(sent) != 1 {
		t.Fatalf("published %d messages, want 1", len(sent))
	}
	if sent[0].topic != "obsidian/player_join" {
		t.Errorf("topic = %s", sent[0].topic)
	}

	var msg struct {
		Type    string        `json:"type"`
		Source  string        `json:"source"`
		Payload PlayerPayload `json:"payload"`
	}
	if err := json.Unmarshal(sent[0].payload, &msg); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if msg.Type != "player_join" || msg.Source != "node-1" || msg.Payload.Name != "Alice" {
		t.Errorf("message = %+v", msg)
	}
}

func TestMQTTSinkOffline(t *testing.T) {
	pub := &fakePublisher{connected: false}
	sink := &MQTTSink{client: pub, log: testLogger()}
	if err := sink.handle(context.Background(), New(EventPlayerLeave, "x", nil)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pub.get()) != 0 {
		t.Error("published while disconnected")
	}
}

func TestMQTTSinkPublishError(t *testing.T) {
	pub := &fakePublisher{connected: true, err: errors.New("broker gone")}
	sink := &MQTTSink{client: pub, log: testLogger()}
	if err := sink.handle(context.Background(), New(EventPlayerChat, "x", ChatPayload{Message: "hi"})); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestMQTTSinkTopic(t *testing.T) {
	if got := (&MQTTSink{}).Topic(EventPlayerChat); got != "player_chat" {
		t.Errorf("Topic without prefix = %s", got)
	}
	if got := (&MQTTSink{prefix: "mc/eu"}).Topic(EventPlayerLeave); got != "mc/eu/player_leave" {
		t.Errorf("Topic = %s", got)
	}
}
