package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	"github.com/matt-g-everett/spritetx/actor"
	"github.com/matt-g-everett/spritetx/api"
	"github.com/matt-g-everett/spritetx/asset"
	"github.com/matt-g-everett/spritetx/config"
	"github.com/matt-g-everett/spritetx/gifscan"
	"github.com/matt-g-everett/spritetx/metrics"
	"github.com/matt-g-everett/spritetx/pacing"
	"github.com/matt-g-everett/spritetx/splash"
	"github.com/matt-g-everett/spritetx/sprite"
	"github.com/matt-g-everett/spritetx/stream"
)

type app struct {
	Config    config.Config
	Sources   sprite.Sources
	Metrics   *metrics.Metrics
	Store     *asset.Store
	Extractor *gifscan.Extractor
	Policy    *pacing.Policy
	Actor     *actor.Actor
	Client    mqtt.Client
	Streamer  *stream.Streamer
	Hub       *api.Hub
}

func newApp(cfg config.Config) (*app, error) {
	a := new(app)
	a.Config = cfg

	sources, err := cfg.Sources()
	if err != nil {
		return nil, err
	}
	a.Sources = sources
	a.Metrics = metrics.New()

	// One cache and one preload set for the whole process.
	a.Store = asset.NewStore(asset.NewFetcher(cfg.Assets.Dir, cfg.Assets.FetchTimeout))
	a.Extractor = gifscan.NewExtractor(a.Store, gifscan.NewMemoryCache(), a.Metrics)

	fallbacks, minimums := cfg.Timings()
	a.Policy = pacing.NewPolicy(sources, fallbacks, minimums, a.Extractor)

	a.Actor = actor.New(actor.Options{
		ID:        cfg.Actor.ID,
		Durations: a.Policy,
		Metrics:   a.Metrics,
		IdleLoops: cfg.Actor.IdleLoops,
		Inactive:  cfg.Splash.Enabled,
	})
	a.Hub = api.NewHub([]stream.Actor{a.Actor}, sources, a.Metrics)
	return a, nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	glog.Info("mqtt: connected")
	if err := a.Streamer.Subscribe(); err != nil {
		glog.Errorf("mqtt: %v", err)
	}
}

func (a *app) connect() {
	if a.Config.Mqtt.URL == "" {
		glog.Info("mqtt: no broker configured, websocket adapter only")
		return
	}
	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID + "-" + uuid.New().String()[:8]).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)
	a.Streamer = stream.NewStreamer(a.Client, a.Config.Mqtt.Topics, a.Actor, a.Sources)
}

func (a *app) run(ctx context.Context) error {
	sinks := []splash.Sink{a.Hub.VisibilitySink(a.Actor.ID())}
	if a.Client != nil {
		if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("mqtt connect: %w", token.Error())
		}
		defer a.Client.Disconnect(250)
		sinks = append(sinks, a.Streamer)
	}

	asset.NewPreloader(a.Store, asset.NewRequestedSet(), a.Metrics).Preload(ctx, a.Sources.Locators())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Actor.Run(ctx) })

	server := api.NewApi(a.Config.HTTP.Addr, a.Config.Assets.Dir, a.Hub, a.Metrics)
	g.Go(func() error { return server.Serve(ctx) })

	if a.Streamer != nil {
		g.Go(func() error { return a.Streamer.Run(ctx) })
	}

	if a.Config.Splash.Enabled {
		gate := splash.NewGate(splash.Options{
			Durations: a.Policy,
			Actor:     a.Actor,
			Sinks:     sinks,
			Fade:      a.Config.Splash.Fade,
			Surface:   a.Config.SurfaceColor(),
			Backdrop:  a.backdrop(ctx),
		})
		g.Go(func() error { return gate.Run(ctx) })
	}

	return g.Wait()
}

// backdrop is the idle asset's own background colour, or the surface
// colour when it has none.
func (a *app) backdrop(ctx context.Context) colorful.Color {
	c := a.Config.SurfaceColor()
	t, err := a.Extractor.Inspect(ctx, a.Sources.Source(sprite.Idle))
	if err != nil || !t.HasBackground {
		return c
	}
	return t.Background
}

func inspect(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	t := gifscan.Scan(b)
	fmt.Printf("frames:     %d\n", t.Frames)
	fmt.Printf("duration:   %v\n", t.Duration)
	fmt.Printf("encoded:    %v\n", t.Encoded)
	fmt.Printf("truncated:  %v\n", t.Truncated)
	if t.HasBackground {
		fmt.Printf("background: %s\n", t.Background.Hex())
	}
	return nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	inspectPath := flag.String("inspect", "", "Print the timeline of a GIF file and exit.")
	flag.Parse()
	defer glog.Flush()

	if *inspectPath != "" {
		if err := inspect(*inspectPath); err != nil {
			glog.Fatalf("inspect: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		glog.Fatalf("config: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		glog.Fatalf("setup: %v", err)
	}
	a.connect()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		glog.Errorf("run: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
