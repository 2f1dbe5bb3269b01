package stream

import (
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/matt-g-everett/spritetx/sprite"
)

// doneToken is an already completed mqtt.Token.
type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes and subscriptions.
type fakeClient struct {
	mu            sync.Mutex
	published     []published
	subscriptions map[string]mqtt.MessageHandler
	failTopic     string
}

func newFakeClient() *fakeClient {
	return &fakeClient{subscriptions: make(map[string]mqtt.MessageHandler)}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if topic == c.failTopic {
		return doneToken{err: errors.New("broker gone")}
	}
	c.published = append(c.published, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if topic == c.failTopic {
		return doneToken{err: errors.New("not authorised")}
	}
	c.subscriptions[topic] = callback
	return doneToken{}
}

func (c *fakeClient) Published() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.published...)
}

// fakeActor records what render adapters report.
type fakeActor struct {
	id string

	mu         sync.Mutex
	loaded     []sprite.Token
	interrupts int
	updates    chan sprite.Playback
}

func newFakeActor(id string) *fakeActor {
	return &fakeActor{id: id, updates: make(chan sprite.Playback, 4)}
}

func (a *fakeActor) ID() string { return a.id }

func (a *fakeActor) NotifyAssetLoaded(token sprite.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loaded = append(a.loaded, token)
}

func (a *fakeActor) Interrupt() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interrupts++
}

func (a *fakeActor) Subscribe() (<-chan sprite.Playback, func()) {
	return a.updates, func() {}
}

func (a *fakeActor) Loaded() []sprite.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]sprite.Token(nil), a.loaded...)
}

func (a *fakeActor) Interrupts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interrupts
}
