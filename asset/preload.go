package asset

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/matt-g-everett/spritetx/metrics"
)

// RequestedSet remembers which locators have had a preload issued. One set
// is shared per process so each asset is requested at most once.
type RequestedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewRequestedSet creates an empty RequestedSet.
func NewRequestedSet() *RequestedSet {
	return &RequestedSet{seen: make(map[string]struct{})}
}

// Claim marks src as requested and reports whether the caller was first.
func (r *RequestedSet) Claim(src string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[src]; ok {
		return false
	}
	r.seen[src] = struct{}{}
	return true
}

// Preloader warms a Store for a set of locators, fire-and-forget.
type Preloader struct {
	store     *Store
	requested *RequestedSet
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
}

// NewPreloader creates a Preloader. A nil set gets a private one.
func NewPreloader(store *Store, requested *RequestedSet, m *metrics.Metrics) *Preloader {
	p := new(Preloader)
	p.store = store
	p.requested = requested
	if p.requested == nil {
		p.requested = NewRequestedSet()
	}
	p.metrics = m
	return p
}

// Preload issues one background fetch per locator not requested before.
// It returns immediately; errors are logged and dropped.
func (p *Preloader) Preload(ctx context.Context, locators []string) {
	for _, src := range locators {
		if src == "" || !p.requested.Claim(src) {
			continue
		}
		p.wg.Add(1)
		go func(src string) {
			defer p.wg.Done()
			if _, err := p.store.Fetch(ctx, src); err != nil {
				glog.V(1).Infof("preload %s: %v", src, err)
				p.metrics.Preload("error")
				return
			}
			p.metrics.Preload("ok")
		}(src)
	}
}

// Wait blocks until every preload issued so far has finished.
func (p *Preloader) Wait() {
	p.wg.Wait()
}
