package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/spritetx/metrics"
	"github.com/matt-g-everett/spritetx/sprite"
	"github.com/matt-g-everett/spritetx/stream"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

// Hub is the websocket render adapter. Each connection follows one actor:
// it is sent every playback change and may report loads and pointer events.
type Hub struct {
	actors   map[string]stream.Actor
	fallback string
	sources  sprite.Sources
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// NewHub creates a Hub serving actors. The first actor is used when a
// client does not name one.
func NewHub(actors []stream.Actor, sources sprite.Sources, m *metrics.Metrics) *Hub {
	h := new(Hub)
	h.actors = make(map[string]stream.Actor, len(actors))
	for i, a := range actors {
		if i == 0 {
			h.fallback = a.ID()
		}
		h.actors[a.ID()] = a
	}
	h.sources = sources
	h.metrics = m
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	h.conns = make(map[*conn]struct{})
	return h
}

type conn struct {
	ws    *websocket.Conn
	actor stream.Actor
	send  chan []byte
	done  chan struct{}
}

// ServeHTTP upgrades the request and follows the actor named by ?actor=.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("actor")
	if id == "" {
		id = h.fallback
	}
	act, ok := h.actors[id]
	if !ok {
		http.Error(w, "unknown actor", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("ws: upgrade: %v", err)
		return
	}
	c := &conn{
		ws:    ws,
		actor: act,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}
	h.add(c)
	defer h.remove(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.AdapterConnected()
	glog.V(1).Infof("ws: %s connected for actor %s", c.ws.RemoteAddr(), c.actor.ID())
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	close(c.done)
	c.ws.Close()
	h.metrics.AdapterDisconnected()
	glog.V(1).Infof("ws: %s disconnected", c.ws.RemoteAddr())
}

func (h *Hub) readLoop(c *conn) {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				glog.Errorf("ws: read: %v", err)
			}
			return
		}
		in, err := stream.DecodeInbound(payload)
		if err != nil {
			glog.Warningf("ws: %v", err)
			continue
		}
		if !in.For(c.actor.ID()) {
			continue
		}
		switch in.Type {
		case stream.TypeLoaded:
			c.actor.NotifyAssetLoaded(in.Token)
		case stream.TypePointer:
			c.actor.Interrupt()
		}
	}
}

func (h *Hub) writeLoop(c *conn) {
	updates, cancel := c.actor.Subscribe()
	defer cancel()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case pb := <-updates:
			b, err := json.Marshal(stream.NewPlaybackMessage(c.actor.ID(), pb, h.sources.Source(pb.State)))
			if err != nil {
				glog.Errorf("ws: encode playback: %v", err)
				continue
			}
			if !h.write(c, websocket.TextMessage, b) {
				return
			}
		case b := <-c.send:
			if !h.write(c, websocket.TextMessage, b) {
				return
			}
		case <-ticker.C:
			if !h.write(c, websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (h *Hub) write(c *conn, messageType int, b []byte) bool {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(messageType, b); err != nil {
		glog.V(1).Infof("ws: write: %v", err)
		return false
	}
	return true
}

// VisibilitySink returns a sink that forwards fade frames to every
// connection following actorID.
func (h *Hub) VisibilitySink(actorID string) *HubSink {
	return &HubSink{hub: h, actor: actorID}
}

// HubSink forwards visibility frames for one actor.
type HubSink struct {
	hub   *Hub
	actor string
}

// Visibility queues one fade frame on every connection following the actor.
func (s *HubSink) Visibility(opacity float64, backdrop colorful.Color) {
	f := stream.VisibilityFrame{Opacity: opacity, Backdrop: backdrop}
	b, err := json.Marshal(f.Message(s.actor))
	if err != nil {
		glog.Errorf("ws: encode visibility: %v", err)
		return
	}
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	for c := range s.hub.conns {
		if c.actor.ID() != s.actor {
			continue
		}
		// Fade frames are disposable; drop them for a slow client.
		select {
		case c.send <- b:
		default:
		}
	}
}
