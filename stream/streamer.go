package stream

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matt-g-everett/spritetx/sprite"
)

// Client is the part of mqtt.Client a Streamer uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Streamer is the MQTT render adapter for one actor. It announces playback
// changes and feeds load acknowledgements and pointer events back.
type Streamer struct {
	client  Client
	topics  Topics
	actor   Actor
	sources sprite.Sources
	qos     byte
}

// NewStreamer creates a Streamer for actor.
func NewStreamer(client Client, topics Topics, actor Actor, sources sprite.Sources) *Streamer {
	s := new(Streamer)
	s.client = client
	s.topics = topics
	s.actor = actor
	s.sources = sources
	s.qos = 1
	return s
}

// Subscribe listens on the ack and pointer topics. Call it from the
// client's OnConnect handler so subscriptions survive reconnects.
func (s *Streamer) Subscribe() error {
	if token := s.client.Subscribe(s.topics.Ack, s.qos, s.handleAck); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", s.topics.Ack, token.Error())
	}
	if token := s.client.Subscribe(s.topics.Pointer, s.qos, s.handlePointer); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", s.topics.Pointer, token.Error())
	}
	return nil
}

func (s *Streamer) handleAck(client mqtt.Client, msg mqtt.Message) {
	s.receive(msg.Topic(), msg.Payload(), TypeLoaded)
}

func (s *Streamer) handlePointer(client mqtt.Client, msg mqtt.Message) {
	s.receive(msg.Topic(), msg.Payload(), TypePointer)
}

// receive routes one inbound payload. want is the type the topic carries.
func (s *Streamer) receive(topic string, payload []byte, want string) {
	in, err := DecodeInbound(payload)
	if err != nil {
		glog.Warningf("stream: %s: %v", topic, err)
		return
	}
	if in.Type != want || !in.For(s.actor.ID()) {
		return
	}
	glog.V(2).Infof("stream: %s %s token=%d", topic, in.Type, in.Token)
	switch in.Type {
	case TypeLoaded:
		s.actor.NotifyAssetLoaded(in.Token)
	case TypePointer:
		s.actor.Interrupt()
	}
}

// SendPlayback publishes pb as a retained message so late joiners see the
// current state.
func (s *Streamer) SendPlayback(pb sprite.Playback) error {
	b, err := json.Marshal(NewPlaybackMessage(s.actor.ID(), pb, s.sources.Source(pb.State)))
	if err != nil {
		return fmt.Errorf("encode playback: %w", err)
	}
	token := s.client.Publish(s.topics.Playback, s.qos, true, b)
	token.Wait()
	return token.Error()
}

// Visibility publishes one fade frame.
func (s *Streamer) Visibility(opacity float64, backdrop colorful.Color) {
	f := VisibilityFrame{Opacity: opacity, Backdrop: backdrop}
	b, err := f.MarshalBinary()
	if err != nil {
		glog.Errorf("stream: encode visibility: %v", err)
		return
	}
	token := s.client.Publish(s.topics.Visibility, 0, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		glog.Errorf("stream: publish visibility: %v", err)
	}
}

// Run forwards every playback change until ctx is done.
func (s *Streamer) Run(ctx context.Context) error {
	updates, cancel := s.actor.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case pb := <-updates:
			if err := s.SendPlayback(pb); err != nil {
				glog.Errorf("stream: publish playback %s/%d: %v", pb.State, pb.Token, err)
			}
		}
	}
}
