package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/spritetx/metrics"
	"github.com/matt-g-everett/spritetx/sprite"
	"github.com/matt-g-everett/spritetx/stream"
)

type fakeActor struct {
	id      string
	updates chan sprite.Playback

	mu         sync.Mutex
	loaded     []sprite.Token
	interrupts int
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

var testSources = sprite.Sources{sprite.Idle: "idle.gif", sprite.LookAround: "look.gif"}

func startHub(t *testing.T, actors ...stream.Actor) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(actors, testSources, metrics.New())
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func (h *Hub) connCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func TestHubSendsPlayback(t *testing.T) {
	jack := newFakeActor("jack")
	_, srv := startHub(t, jack)
	ws := dial(t, srv, "")

	jack.updates <- sprite.Playback{State: sprite.LookAround, Token: 5}

	ws.SetReadDeadline(time.Now().Add(time.Second))
	var msg stream.PlaybackMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, stream.TypePlayback, msg.Type)
	assert.Equal(t, "jack", msg.Actor)
	assert.Equal(t, "lookaround", msg.State)
	assert.Equal(t, sprite.Token(5), msg.Token)
	assert.Equal(t, "look.gif", msg.Source)
}

func TestHubRoutesInbound(t *testing.T) {
	jack, jill := newFakeActor("jack"), newFakeActor("jill")
	_, srv := startHub(t, jack, jill)
	ws := dial(t, srv, "?actor=jill")

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"loaded","token":3}`)))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"loaded","actor":"jack","token":4}`)))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`garbage`)))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"pointer","actor":"jill"}`)))

	require.Eventually(t, func() bool { return jill.Interrupts() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []sprite.Token{3}, jill.Loaded())
	assert.Empty(t, jack.Loaded())
}

func TestHubRejectsUnknownActor(t *testing.T) {
	_, srv := startHub(t, newFakeActor("jack"))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?actor=nobody"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVisibilitySink(t *testing.T) {
	hub, srv := startHub(t, newFakeActor("jack"), newFakeActor("jill"))
	jackWS := dial(t, srv, "?actor=jack")
	jillWS := dial(t, srv, "?actor=jill")
	require.Eventually(t, func() bool { return hub.connCount() == 2 }, time.Second, time.Millisecond)

	hub.VisibilitySink("jack").Visibility(0.5, colorful.Color{R: 1, G: 1, B: 1})

	jackWS.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := jackWS.ReadMessage()
	require.NoError(t, err)
	var msg stream.VisibilityMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, stream.TypeVisibility, msg.Type)
	assert.Equal(t, 0.5, msg.Opacity)
	assert.Equal(t, "#ffffff", msg.Backdrop)

	jillWS.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err = jillWS.ReadMessage()
	assert.Error(t, err)
}

func TestHubForgetsClosedConnections(t *testing.T) {
	hub, srv := startHub(t, newFakeActor("jack"))
	ws := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.connCount() == 1 }, time.Second, time.Millisecond)

	ws.Close()
	require.Eventually(t, func() bool { return hub.connCount() == 0 }, time.Second, time.Millisecond)
}
