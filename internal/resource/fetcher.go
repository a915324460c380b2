package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lmsadmin/internal/calc"
	"lmsadmin/internal/client"
	"lmsadmin/internal/domain"
	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/query"
	"lmsadmin/internal/session"
)

type State[T any] struct {
	Items      []T
	Meta       domain.Meta
	Footer     calc.Footer
	Key        string
	IsLoading  bool
	IsFetching bool
	Err        error
}

// Flight dedups identical list loads across views. Invalidate moves it to a
// new epoch: loads started before never serve later callers and never write
// their page to the cache.
type Flight struct {
	group singleflight.Group

	mu    sync.Mutex
	epoch uint64
}

func (fl *Flight) Invalidate() {
	fl.mu.Lock()
	fl.epoch++
	fl.mu.Unlock()
}

func (fl *Flight) Epoch() uint64 {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.epoch
}

// storeIf runs store only while epoch is still current.
func (fl *Flight) storeIf(epoch uint64, store func()) bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if epoch != fl.epoch {
		return false
	}
	store()
	return true
}

// pending is the load a view is waiting on; requests for the same key join it.
type pending[T any] struct {
	key   string
	epoch uint64
	done  chan struct{}
	state State[T]
}

// Fetcher is one admin's list view of a resource. It keeps the last page on
// screen while the next one loads and only ever shows the newest filter.
type Fetcher[T any] struct {
	res    Client[T]
	cache  Cache
	flight *Flight
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	state    State[T]
	values   url.Values
	loadedAt time.Time
	pending  *pending[T]
}

func NewFetcher[T any](res Client[T], cache Cache, flight *Flight, ttl time.Duration, now func() time.Time) *Fetcher[T] {
	return &Fetcher[T]{res: res, cache: cache, flight: flight, ttl: ttl, now: now}
}

// Key is the cache key of a query: the resource path plus the canonical query.
func (f *Fetcher[T]) Key(values url.Values) string {
	return f.res.Endpoint().Path + "?" + query.Canonical(values)
}

// Snapshot returns the current state without loading anything.
func (f *Fetcher[T]) Snapshot() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Fetcher[T]) Fetch(ctx context.Context, sess *session.Session, values url.Values) State[T] {
	key := f.Key(values)
	epoch := f.flight.Epoch()

	f.mu.Lock()
	if p := f.pending; p != nil && p.key == key && p.epoch == epoch {
		f.mu.Unlock()
		return f.join(ctx, sess, values, p)
	}
	if key == f.state.Key && f.fresh() {
		st := f.state
		f.mu.Unlock()
		return st
	}

	f.gen++
	gen := f.gen
	if f.cancel != nil {
		f.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	p := &pending[T]{key: key, epoch: epoch, done: make(chan struct{})}
	f.pending = p
	f.loadedAt = time.Time{}
	f.values = values
	f.state.Key = key
	f.state.Err = nil
	if f.state.Items != nil {
		f.state.IsFetching = true
	} else {
		f.state.IsLoading = true
	}
	f.mu.Unlock()

	page, err := f.load(loadCtx, sess, key, epoch, values)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.settle(ctx, gen, key, values, page, err)
	p.state = st
	if f.pending == p {
		f.pending = nil
	}
	close(p.done)
	return st
}

// join waits for the view's own load of the same key. A load that died with
// its first caller's context is retried for this one.
func (f *Fetcher[T]) join(ctx context.Context, sess *session.Session, values url.Values, p *pending[T]) State[T] {
	select {
	case <-ctx.Done():
		return State[T]{Key: p.key, Err: ctx.Err()}
	case <-p.done:
	}
	if err := p.state.Err; errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return f.Fetch(ctx, sess, values)
	}
	return p.state
}

// settle records the outcome of load gen. Callers hold f.mu.
func (f *Fetcher[T]) settle(ctx context.Context, gen uint64, key string, values url.Values, page client.Page[T], err error) State[T] {
	if gen != f.gen {
		logging.FromContext(ctx).Debug(ctx, "discarding superseded list response", zap.String("key", key))
		return State[T]{Key: key, Err: errdefs.ErrSuperseded}
	}
	f.cancel = nil

	if err != nil {
		f.state = State[T]{Key: key, Err: err}
		f.loadedAt = time.Time{}
		return f.state
	}

	meta := page.Meta
	if meta.Page == 0 {
		meta.Page = pageOf(values)
	}
	items := page.Items
	if items == nil {
		items = []T{}
	}
	f.state = State[T]{
		Items:  items,
		Meta:   meta,
		Footer: calc.PageFooter(meta.Page, meta.Limit, meta.Total),
		Key:    key,
	}
	f.loadedAt = f.now()
	return f.state
}

// Refetch drops the cached page for the current query and loads it again.
func (f *Fetcher[T]) Refetch(ctx context.Context, sess *session.Session) State[T] {
	f.mu.Lock()
	values, key := f.values, f.state.Key
	f.loadedAt = time.Time{}
	f.mu.Unlock()

	if key == "" {
		return State[T]{}
	}
	f.cache.Delete(ctx, key)
	return f.Fetch(ctx, sess, values)
}

// Invalidate marks the loaded page stale so the next Fetch goes to the cache or backend.
func (f *Fetcher[T]) Invalidate() {
	f.mu.Lock()
	f.loadedAt = time.Time{}
	f.mu.Unlock()
}

func (f *Fetcher[T]) fresh() bool {
	if f.loadedAt.IsZero() || f.state.Err != nil {
		return false
	}
	return f.now().Sub(f.loadedAt) < f.ttl
}

func (f *Fetcher[T]) load(ctx context.Context, sess *session.Session, key string, epoch uint64, values url.Values) (client.Page[T], error) {
	logger := logging.FromContext(ctx)

	if data, ok := f.cache.Get(ctx, key); ok {
		var page client.Page[T]
		if err := json.Unmarshal(data, &page); err == nil {
			return page, nil
		}
		logger.Warn(ctx, "dropping unreadable cached page", zap.String("key", key))
		f.cache.Delete(ctx, key)
	}

	// The shared call outlives any single caller; a caller that gives up only stops waiting.
	ch := f.flight.group.DoChan(fmt.Sprintf("%d|%s", epoch, key), func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		page, err := f.res.List(callCtx, sess, values)
		if err != nil {
			return nil, err
		}
		if f.ttl > 0 {
			if data, err := json.Marshal(page); err == nil {
				stored := f.flight.storeIf(epoch, func() { f.cache.Set(callCtx, key, data, f.ttl) })
				if !stored {
					logger.Debug(ctx, "not caching page loaded before invalidation", zap.String("key", key))
				}
			}
		}
		return page, nil
	})

	select {
	case <-ctx.Done():
		return client.Page[T]{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return client.Page[T]{}, res.Err
		}
		return res.Val.(client.Page[T]), nil
	}
}

func pageOf(values url.Values) int {
	var p query.Params
	if err := query.Decode(values, &p, nil); err != nil {
		return query.DefaultPage
	}
	return p.Page
}
