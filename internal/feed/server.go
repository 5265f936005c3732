package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// HTTP values used by the handler.
const (
	MimeTextCalendar    = "text/calendar; charset=utf-8"
	CacheControlPrivate = "private, max-age=0, must-revalidate"
	AllowedMethods      = "GET, HEAD"
)

// BuildFunc renders the feed for a resolved language key.
type BuildFunc func(ctx context.Context, lang string) ([]byte, error)

// ResolveFunc maps a request's Accept-Language value onto one of a fixed set
// of language keys. The cache holds at most one entry per key.
type ResolveFunc func(acceptLanguage string) string

// cacheItem stores the last rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// Handler serves the ICS feed with ETag and Last-Modified support.
// The feed is rebuilt on every request; Last-Modified only moves when the
// rendered bytes change.
type Handler struct {
	build   BuildFunc
	resolve ResolveFunc
	now     func() time.Time

	// last remembers the most recent distinct rendering per language.
	last atomic.Pointer[map[string]*cacheItem]
}

// NewHandler creates a feed handler around build. A nil resolve serves every
// request from a single cache entry.
func NewHandler(build BuildFunc, resolve ResolveFunc, now func() time.Time) *Handler {
	if resolve == nil {
		resolve = func(string) string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{build: build, resolve: resolve, now: now}
}

// CachedLanguages reports how many language keys have a cached rendering.
func (h *Handler) CachedLanguages() int {
	current := h.last.Load()
	if current == nil {
		return 0
	}
	return len(*current)
}

// item returns the cache entry for data, reusing the previous one when the
// content is unchanged.
func (h *Handler) item(lang string, data []byte) *cacheItem {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(`"%s"`, hex.EncodeToString(hash[:]))

	for {
		current := h.last.Load()
		if current != nil {
			if prev, ok := (*current)[lang]; ok && prev.etag == etag {
				return prev
			}
		}

		item := &cacheItem{
			data:         data,
			etag:         etag,
			lastModified: h.now().UTC().Format(http.TimeFormat),
		}

		next := make(map[string]*cacheItem)
		if current != nil {
			for k, v := range *current {
				next[k] = v
			}
		}
		next[lang] = item

		if h.last.CompareAndSwap(current, &next) {
			slog.Debug("calendar cache updated", "lang", lang, "size_bytes", len(data), "etag", etag)
			return item
		}
	}
}

// ServeHTTP serves the ICS content with HTTP caching support.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", AllowedMethods)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lang := h.resolve(r.Header.Get("Accept-Language"))
	data, err := h.build(r.Context(), lang)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build calendar", "error", err)
		http.Error(w, "failed to build calendar", http.StatusInternalServerError)
		return
	}
	item := h.item(lang, data)

	w.Header().Set("Content-Type", MimeTextCalendar)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", CacheControlPrivate)
	w.Header().Set("ETag", item.etag)
	w.Header().Set("Last-Modified", item.lastModified)

	if etagMatches(r.Header.Get("If-None-Match"), item.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get("If-Modified-Since"); since != "" && r.Header.Get("If-None-Match") == "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.ErrorContext(r.Context(), "failed to write calendar", "error", err)
		}
	}
}

// etagMatches reports whether an If-None-Match header lists etag. Comparison
// is weak, so a W/ prefix on either side is ignored.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	etag = strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
