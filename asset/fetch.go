package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher returns the raw bytes behind a source locator.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// HTTPFetcher fetches http(s) locators.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	f := new(HTTPFetcher)
	f.Client = &http.Client{Timeout: timeout}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", src, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return b, nil
}

// FileFetcher reads locators as paths relative to Root.
type FileFetcher struct {
	Root string
}

func (f *FileFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, filepath.FromSlash(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return b, nil
}

// SchemeFetcher sends http(s) locators to HTTP and everything else to File.
type SchemeFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// NewFetcher builds a SchemeFetcher rooted at the asset directory.
func NewFetcher(root string, timeout time.Duration) *SchemeFetcher {
	return &SchemeFetcher{
		HTTP: NewHTTPFetcher(timeout),
		File: &FileFetcher{Root: root},
	}
}

func (f *SchemeFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return f.HTTP.Fetch(ctx, src)
	}
	return f.File.Fetch(ctx, src)
}
