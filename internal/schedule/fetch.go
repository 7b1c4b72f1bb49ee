package schedule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "daycanvas/internal/log"
)

// Source is one calendar subscription.
type Source struct {
	ID string
	// URL is an http(s) endpoint, a file:// URL or a plain path.
	URL string
	// Kind overrides the kind of every entry from this source ("" keeps
	// per-event CATEGORIES).
	Kind string
}

// Payload is the body of one source, fresh or from cache.
type Payload struct {
	Source    Source
	Body      []byte
	FromCache bool
}

var (
	ErrEmptyURL     = errors.New("schedule: source url is empty")
	ErrNoCachedBody = errors.New("schedule: 304 without a cached body")
)

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher loads sources. HTTP responses are cached on disk per URL and
// revalidated with ETag / Last-Modified; the cache also covers network
// failures.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default 15s-timeout client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

func NewFetcher(cacheDir string, opts ...FetcherOption) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FetchAll loads every source. Failed sources are logged and reported in
// errs; the rest are returned.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) (out []Payload, errs []error) {
	for _, src := range sources {
		p, err := f.Fetch(ctx, src)
		if err != nil {
			appLog.Error("schedule: fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
			continue
		}
		out = append(out, p)
	}
	return out, errs
}

// Fetch loads one source.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (Payload, error) {
	if strings.TrimSpace(src.URL) == "" {
		return Payload{}, ErrEmptyURL
	}
	if path, ok := localPath(src.URL); ok {
		body, err := os.ReadFile(path)
		if err != nil {
			return Payload{}, fmt.Errorf("schedule: read %s: %w", path, err)
		}
		return Payload{Source: src, Body: body}, nil
	}
	return f.fetchHTTP(ctx, src)
}

func localPath(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw, true
	}
	if u.Scheme == "file" {
		return u.Path, true
	}
	return "", false
}

func (f *Fetcher) fetchHTTP(ctx context.Context, src Source) (Payload, error) {
	dir := f.cacheDirFor(src.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Payload{}, fmt.Errorf("schedule: cache dir: %w", err)
	}
	meta, _ := readMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	fallback := func(cause error) (Payload, error) {
		if len(cached) == 0 {
			return Payload{}, cause
		}
		appLog.Warn("schedule: using cached body", "id", src.ID, "url", redactURL(src.URL), "cause", cause.Error())
		return Payload{Source: src, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("schedule: request: %w", err)
	}
	if len(cached) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		meta = cacheMeta{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := writeCache(dir, meta, body); err != nil {
			appLog.Error("schedule: cache save failed", err, "id", src.ID)
		}
		appLog.Debug("schedule: fetched", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return Payload{Source: src, Body: body}, nil
	case http.StatusNotModified:
		if len(cached) == 0 {
			return Payload{}, ErrNoCachedBody
		}
		appLog.Debug("schedule: not modified", "id", src.ID, "url", redactURL(src.URL))
		return Payload{Source: src, Body: cached, FromCache: true}, nil
	default:
		return fallback(fmt.Errorf("schedule: unexpected status %s", resp.Status))
	}
}

func (f *Fetcher) cacheDirFor(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func readMeta(dir string) (cacheMeta, error) {
	var m cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

// writeCache stores the body before the metadata so meta never names a
// body that is not on disk.
func writeCache(dir string, m cacheMeta, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; subscription paths often embed
// secrets.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if u != nil && u.Scheme == "file" {
			return "file://" + filepath.Base(u.Path)
		}
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
