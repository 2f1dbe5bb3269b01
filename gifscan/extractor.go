package gifscan

import (
	"context"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/singleflight"

	"github.com/matt-g-everett/spritetx/metrics"
)

// Fetcher returns the raw bytes behind a source locator.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// Forgetter is implemented by fetchers that keep what they return. The
// extractor makes them drop bytes that did not parse so the next lookup
// fetches again.
type Forgetter interface {
	Forget(src string)
}

// Extractor resolves the playback duration of a GIF source, memoizing
// successful results in a Cache.
type Extractor struct {
	fetcher Fetcher
	cache   Cache
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewExtractor creates an Extractor. A nil cache gets a private MemoryCache.
func NewExtractor(fetcher Fetcher, cache Cache, m *metrics.Metrics) *Extractor {
	e := new(Extractor)
	e.fetcher = fetcher
	e.cache = cache
	if e.cache == nil {
		e.cache = NewMemoryCache()
	}
	e.metrics = m
	return e
}

// Extract returns the duration of src, or fallback if it cannot be fetched
// or parsed. Only parsed durations are cached, so a failure now does not
// hide a good fetch later.
func (e *Extractor) Extract(ctx context.Context, src string, fallback time.Duration) time.Duration {
	if d, ok := e.cache.Lookup(src); ok {
		e.metrics.Extraction("hit")
		return d
	}

	v, _, _ := e.group.Do(src, func() (interface{}, error) {
		if d, ok := e.cache.Lookup(src); ok {
			return d, nil
		}
		b, err := e.fetcher.Fetch(ctx, src)
		if err != nil {
			glog.V(1).Infof("gifscan: fetch %s: %v", src, err)
			return time.Duration(0), nil
		}
		d, ok := Extract(b, 0)
		if !ok {
			glog.V(1).Infof("gifscan: %s has no usable timeline", src)
			if f, ok := e.fetcher.(Forgetter); ok {
				f.Forget(src)
			}
			return time.Duration(0), nil
		}
		e.cache.Store(src, d)
		return d, nil
	})

	d, _ := v.(time.Duration)
	if d <= 0 {
		e.metrics.Extraction("fallback")
		return fallback
	}
	e.metrics.Extraction("parsed")
	return d
}

// Inspect fetches src and returns its full timeline without touching the cache.
func (e *Extractor) Inspect(ctx context.Context, src string) (Timeline, error) {
	b, err := e.fetcher.Fetch(ctx, src)
	if err != nil {
		return Timeline{}, err
	}
	return Scan(b), nil
}
