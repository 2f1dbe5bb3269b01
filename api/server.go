package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matt-g-everett/spritetx/metrics"
)

// Api is the HTTP surface: the asset files, the websocket render adapter
// and metrics.
type Api struct {
	addr     string
	assetDir string
	hub      *Hub
	metrics  *metrics.Metrics
}

// NewApi creates an Api listening on addr.
func NewApi(addr, assetDir string, hub *Hub, m *metrics.Metrics) *Api {
	a := new(Api)
	a.addr = addr
	a.assetDir = assetDir
	a.hub = hub
	a.metrics = m
	return a
}

// Handler returns the routes.
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	fs := http.FileServer(http.Dir(a.assetDir))
	mux.Handle("/assets/", http.StripPrefix("/assets/", fs))
	if a.hub != nil {
		mux.Handle("/ws", a.hub)
	}
	if reg := a.metrics.Registry(); reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Serve listens until ctx is done, then shuts down gracefully.
func (a *Api) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		glog.Infof("api: listening on %s", a.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
