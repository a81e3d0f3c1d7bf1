package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/metrics"
)

const userAgent = "Mangashelf/1.0 (https://github.com/mrlokans/mangashelf)"

// ErrNotFound is returned when the catalogue has no entry for a url.
var ErrNotFound = errors.New("not found in source")

// StatusError is an unexpected HTTP status from a catalogue.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Definition configures one HTTP catalogue.
type Definition struct {
	ID             int64
	Name           string
	Lang           string
	BaseURL        string
	SupportsLatest bool
}

// ParseDefinition reads "id|name|lang|base_url[|latest]".
func ParseDefinition(s string) (Definition, error) {
	parts := strings.Split(strings.TrimSpace(s), "|")
	if len(parts) < 4 || len(parts) > 5 {
		return Definition{}, fmt.Errorf("source definition %q: want id|name|lang|base_url[|latest]", s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return Definition{}, fmt.Errorf("source definition %q: invalid id %q", s, parts[0])
	}
	if parts[1] == "" {
		return Definition{}, fmt.Errorf("source definition %q: name is required", s)
	}
	base, err := url.Parse(parts[3])
	if err != nil || base.Scheme == "" || base.Host == "" {
		return Definition{}, fmt.Errorf("source definition %q: invalid base url %q", s, parts[3])
	}

	def := Definition{
		ID:      id,
		Name:    parts[1],
		Lang:    parts[2],
		BaseURL: strings.TrimRight(parts[3], "/"),
	}
	if len(parts) == 5 {
		if parts[4] != "latest" {
			return Definition{}, fmt.Errorf("source definition %q: unknown flag %q", s, parts[4])
		}
		def.SupportsLatest = true
	}
	return def, nil
}

// Options tunes the HTTP behaviour of a catalogue.
type Options struct {
	Timeout         time.Duration
	CacheTTL        time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:         15 * time.Second,
		CacheTTL:        5 * time.Minute,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// HTTPCatalogue reads a catalogue that serves JSON over HTTP:
//
//	GET /search?q=&page=   GET /popular?page=   GET /latest?page=
//	GET /manga?url=        GET /chapters?url=
//
// Listing pages are cached for Options.CacheTTL. Transient failures are
// retried with exponential backoff.
type HTTPCatalogue struct {
	def        Definition
	opts       Options
	httpClient *http.Client
	listings   *gocache.Cache
	log        logrus.FieldLogger
}

// NewHTTPCatalogue creates a catalogue for def. A non-positive CacheTTL
// disables the listing cache.
func NewHTTPCatalogue(def Definition, opts Options, log logrus.FieldLogger) *HTTPCatalogue {
	c := &HTTPCatalogue{
		def:  def,
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		log: log.WithField("source", def.Name),
	}
	if opts.CacheTTL > 0 {
		c.listings = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

func (c *HTTPCatalogue) ID() int64            { return c.def.ID }
func (c *HTTPCatalogue) Name() string         { return c.def.Name }
func (c *HTTPCatalogue) Lang() string         { return c.def.Lang }
func (c *HTTPCatalogue) SupportsLatest() bool { return c.def.SupportsLatest }

func (c *HTTPCatalogue) Search(ctx context.Context, query string, page int) (entities.MangasPage, error) {
	return c.listing(ctx, "search", url.Values{"q": {query}, "page": {strconv.Itoa(page)}})
}

func (c *HTTPCatalogue) Popular(ctx context.Context, page int) (entities.MangasPage, error) {
	return c.listing(ctx, "popular", url.Values{"page": {strconv.Itoa(page)}})
}

func (c *HTTPCatalogue) Latest(ctx context.Context, page int) (entities.MangasPage, error) {
	if !c.def.SupportsLatest {
		return entities.MangasPage{}, ErrLatestUnsupported
	}
	return c.listing(ctx, "latest", url.Values{"page": {strconv.Itoa(page)}})
}

func (c *HTTPCatalogue) MangaDetails(ctx context.Context, mangaURL string) (entities.SourceManga, error) {
	var m entities.SourceManga
	if err := c.get(ctx, "manga", url.Values{"url": {mangaURL}}, &m); err != nil {
		return entities.SourceManga{}, err
	}
	if m.URL == "" {
		m.URL = mangaURL
	}
	return m, nil
}

func (c *HTTPCatalogue) ChapterList(ctx context.Context, mangaURL string) ([]entities.SourceChapter, error) {
	var chapters []entities.SourceChapter
	if err := c.get(ctx, "chapters", url.Values{"url": {mangaURL}}, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

func (c *HTTPCatalogue) listing(ctx context.Context, endpoint string, query url.Values) (entities.MangasPage, error) {
	query.Set("limit", strconv.Itoa(PageSize))
	if c.listings == nil {
		var page entities.MangasPage
		err := c.get(ctx, endpoint, query, &page)
		return page, err
	}

	key := endpoint + "?" + query.Encode()
	if cached, ok := c.listings.Get(key); ok {
		metrics.SourceCacheHits.WithLabelValues(metrics.SourceLabel(c.def.ID), endpoint).Inc()
		return cached.(entities.MangasPage), nil
	}

	var page entities.MangasPage
	if err := c.get(ctx, endpoint, query, &page); err != nil {
		return entities.MangasPage{}, err
	}
	c.listings.Set(key, page, gocache.DefaultExpiration)
	return page, nil
}

func (c *HTTPCatalogue) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := fmt.Sprintf("%s/%s?%s", c.def.BaseURL, endpoint, query.Encode())

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.InitialInterval
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := c.fetch(ctx, target, out)
		if err == nil {
			return nil
		}
		var status *StatusError
		if errors.Is(err, ErrNotFound) || (errors.As(err, &status) && !status.Retryable()) {
			return backoff.Permanent(err)
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
		}).Debug("Source request failed")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, c.opts.MaxRetries), ctx))

	metrics.SourceRequests.WithLabelValues(metrics.SourceLabel(c.def.ID), endpoint, metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("%s %s: %w", c.def.Name, endpoint, err)
	}
	return nil
}

func (c *HTTPCatalogue) fetch(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
