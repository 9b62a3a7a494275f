// Package notify caches notification pages shared by the badge and the list
// view, and polls for the result of a bulk commission claim.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/payline/pkg/domain"
)

// Defaults for the cache and the claim poll.
const (
	DefaultStaleAfter   = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultPollCeiling  = 30 * time.Second

	// backgroundTimeout bounds a shared fetch and a stale-while-revalidate refresh.
	backgroundTimeout = 15 * time.Second
)

// ErrInvalidPage is returned for a page or page size below 1.
var ErrInvalidPage = errors.New("page and page size must be positive")

// Fetcher is the notification part of the API client.
type Fetcher interface {
	ListNotifications(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type entry struct {
	page      *domain.NotificationPage
	fetchedAt time.Time
}

// Coordinator owns the notification cache. It is the only writer of cached
// pages; there should be one per application.
type Coordinator struct {
	fetcher      Fetcher
	log          zerolog.Logger
	now          func() time.Time
	staleAfter   time.Duration
	pollInterval time.Duration
	pollCeiling  time.Duration

	mu      sync.Mutex
	entries map[domain.PageKey]entry
	// gen is bumped by every invalidation. A fetch only stores its result if
	// the generation it started under is still current.
	gen uint64

	flights singleflight.Group
	bg      sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithStaleAfter sets how long a cached page counts as fresh.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

// WithPollInterval sets the delay between claim poll ticks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPollCeiling sets the hard limit on a claim poll.
func WithPollCeiling(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.pollCeiling = d
		}
	}
}

// New creates a Coordinator over fetcher.
func New(fetcher Fetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:      fetcher,
		log:          zerolog.Nop(),
		now:          time.Now,
		staleAfter:   DefaultStaleAfter,
		pollInterval: DefaultPollInterval,
		pollCeiling:  DefaultPollCeiling,
		entries:      make(map[domain.PageKey]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage returns one page of notifications. A fresh cached page is
// returned as is. A stale one is returned too, while a background refresh
// replaces it. Concurrent misses for the same key share one request.
func (c *Coordinator) FetchPage(ctx context.Context, page, pageSize int) (*domain.NotificationPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("notify.FetchPage: %w", ErrInvalidPage)
	}
	key := domain.PageKey{Page: page, PageSize: pageSize}

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		if c.now().Sub(e.fetchedAt) >= c.staleAfter {
			c.revalidate(key)
		}
		return clonePage(e.page), nil
	}

	p, err := c.load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("notify.FetchPage: %w", err)
	}
	return p, nil
}

// Cached returns the cached page for (page, pageSize) without fetching.
func (c *Coordinator) Cached(page, pageSize int) (*domain.NotificationPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[domain.PageKey{Page: page, PageSize: pageSize}]
	if !ok {
		return nil, false
	}
	return clonePage(e.page), true
}

// InvalidateAll drops every cached page. Fetches already in flight will not
// store their results.
func (c *Coordinator) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.entries)
}

// MarkRead marks one notification read and, on success, invalidates every
// cached page so badge and list agree.
func (c *Coordinator) MarkRead(ctx context.Context, id domain.ID) error {
	if err := c.fetcher.MarkNotificationRead(ctx, id.String()); err != nil {
		return fmt.Errorf("notify.MarkRead: %w", err)
	}
	c.InvalidateAll()
	return nil
}

// MarkAllRead marks every notification read and invalidates every cached page.
func (c *Coordinator) MarkAllRead(ctx context.Context) error {
	if err := c.fetcher.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("notify.MarkAllRead: %w", err)
	}
	c.InvalidateAll()
	return nil
}

// Wait blocks until background refreshes have finished.
func (c *Coordinator) Wait() {
	c.bg.Wait()
}

func (c *Coordinator) load(ctx context.Context, key domain.PageKey) (*domain.NotificationPage, error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	flight := fmt.Sprintf("%d/%d@%d", key.Page, key.PageSize, gen)
	ch := c.flights.DoChan(flight, func() (any, error) {
		// The fetch outlives whichever caller started it; each caller
		// still gives up on its own context below.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()
		p, err := c.fetcher.ListNotifications(fctx, key.Page, key.PageSize)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, p)
		return p, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			c.log.Debug().Str("flight", flight).Msg("shared notification fetch")
		}
		return clonePage(r.Val.(*domain.NotificationPage)), nil
	}
}

func (c *Coordinator) store(key domain.PageKey, gen uint64, p *domain.NotificationPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.entries[key] = entry{page: clonePage(p), fetchedAt: c.now()}
}

func (c *Coordinator) revalidate(key domain.PageKey) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if _, err := c.load(ctx, key); err != nil {
			c.log.Warn().Err(err).Int("page", key.Page).Int("page_size", key.PageSize).Msg("background notification refresh failed")
		}
	}()
}

func clonePage(p *domain.NotificationPage) *domain.NotificationPage {
	out := *p
	out.Notifications = append([]domain.Notification(nil), p.Notifications...)
	return &out
}
