package stream

// Topics are the MQTT topics a Streamer publishes to and listens on.
type Topics struct {
	Playback   string `yaml:"playback"`
	Ack        string `yaml:"ack"`
	Pointer    string `yaml:"pointer"`
	Visibility string `yaml:"visibility"`
}
