// Package assets loads the external browser dependencies views declare
// (syntax highlighters, diagram and math renderers). Blobs are fetched
// once per process, cached for its lifetime and handed to subscribers
// as they arrive so displayed documents can be refreshed.
package assets

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
)

// Well-known asset keys views declare through Dependencies.
const (
	KeyHighlight = "highlight"
	KeyMermaid   = "mermaid"
	KeyKatex     = "katex"
)

// DefaultTimeout bounds a single asset fetch.
const DefaultTimeout = 15 * time.Second

// maxAssetSize caps a fetched blob at 8 MiB.
const maxAssetSize = 8 << 20

// DefaultSources maps the well-known keys to their CDN locations.
// Configuration may override or extend these.
func DefaultSources() map[string]string {
	return map[string]string{
		KeyHighlight: "https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.9.0/highlight.min.js",
		KeyMermaid:   "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js",
		KeyKatex:     "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.js",
	}
}

// Loader fetches and caches dependency blobs. Successful fetches stay
// cached for the process lifetime; failures are not cached, so a later
// Request retries.
type Loader struct {
	mu       sync.Mutex
	blobs    *cache.Cache
	inflight map[string]bool
	subs     map[int]func(key string)
	nextSub  int

	sources map[string]string
	client  *http.Client
	logger  zerolog.Logger
}

// New creates a Loader over the given key→URL sources. A nil sources
// map uses DefaultSources; a non-positive timeout uses DefaultTimeout.
func New(sources map[string]string, timeout time.Duration) *Loader {
	if sources == nil {
		sources = DefaultSources()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Loader{
		blobs:    cache.New(cache.NoExpiration, 0),
		inflight: make(map[string]bool),
		subs:     make(map[int]func(string)),
		sources:  sources,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.GetLogger("assets"),
	}
}

// Keys returns the keys this loader knows how to fetch.
func (l *Loader) Keys() []string {
	keys := make([]string, 0, len(l.sources))
	for k := range l.sources {
		keys = append(keys, k)
	}
	return keys
}

// Get returns the cached blob for key, if one has arrived.
func (l *Loader) Get(key string) ([]byte, bool) {
	val, found := l.blobs.Get(key)
	if !found {
		return nil, false
	}
	blob, ok := val.([]byte)
	return blob, ok
}

// Subscribe registers fn to be called with the key of every asset that
// becomes available from now on. The returned function unsubscribes.
func (l *Loader) Subscribe(fn func(key string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// Request starts a background fetch for key unless the blob is already
// cached or a fetch is in flight. Subscribers hear about the arrival.
func (l *Loader) Request(key string) {
	if _, ok := l.Get(key); ok {
		return
	}

	l.mu.Lock()
	if l.inflight[key] {
		l.mu.Unlock()
		return
	}
	l.inflight[key] = true
	l.mu.Unlock()

	go func() {
		defer func() {
			l.mu.Lock()
			delete(l.inflight, key)
			l.mu.Unlock()
		}()

		if _, err := l.Fetch(context.Background(), key); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("asset fetch failed")
		}
	}()
}

// Fetch returns the blob for key, downloading it if needed. Concurrent
// callers for the same key may race the download but the first cached
// result wins; the content is identical either way.
func (l *Loader) Fetch(ctx context.Context, key string) ([]byte, error) {
	if blob, ok := l.Get(key); ok {
		return blob, nil
	}

	url, ok := l.sources[key]
	if !ok {
		return nil, errors.Newf(errors.ErrAssetUnavailable, "unknown asset key %q", key)
	}

	blob, err := l.download(ctx, key, url)
	if err != nil {
		return nil, err
	}

	l.blobs.Set(key, blob, cache.NoExpiration)
	l.notify(key)
	return blob, nil
}

func (l *Loader) download(ctx context.Context, key, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrAssetUnavailable, "building request for asset %q", key)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrAssetUnavailable, "fetching asset %q", key)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrAssetUnavailable, "asset %q returned status %d", key, resp.StatusCode)
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrAssetUnavailable, "reading asset %q", key)
	}
	if len(blob) > maxAssetSize {
		return nil, errors.Newf(errors.ErrAssetUnavailable, "asset %q exceeds %d bytes", key, maxAssetSize)
	}
	if len(blob) == 0 {
		return nil, errors.Newf(errors.ErrAssetUnavailable, "asset %q is empty", key)
	}

	// Captive portals and CDN error pages answer 200 with HTML. A
	// script or stylesheet never starts with markup.
	if looksLikeMarkup(blob) {
		return nil, errors.Newf(errors.ErrAssetUnavailable, "asset %q looks like an error page, not a script", key)
	}

	l.logger.Debug().
		Str("key", key).
		Int("bytes", len(blob)).
		Dur("took", time.Since(start)).
		Msg("asset fetched")
	return blob, nil
}

// notify calls every subscriber outside the lock.
func (l *Loader) notify(key string) {
	l.mu.Lock()
	fns := make([]func(string), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// looksLikeMarkup reports whether the blob starts with an HTML shape.
func looksLikeMarkup(blob []byte) bool {
	head := strings.TrimLeft(string(blob[:min(len(blob), 512)]), " \t\r\n﻿")
	lower := strings.ToLower(head)
	for _, prefix := range []string{"<!doctype", "<html", "<head", "<body"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
