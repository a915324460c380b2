package resource

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"lmsadmin/internal/client"
	"lmsadmin/internal/events"
	"lmsadmin/internal/session"
)

var admin = &session.Session{Token: "tok", UserID: "admin-1", Role: session.RoleAdmin}

type mockClient[T any] struct {
	mock.Mock
	ep client.Endpoint
}

func (m *mockClient[T]) Endpoint() client.Endpoint { return m.ep }

func (m *mockClient[T]) List(ctx context.Context, sess *session.Session, values url.Values) (client.Page[T], error) {
	args := m.Called(ctx, sess, values)
	return args.Get(0).(client.Page[T]), args.Error(1)
}

func (m *mockClient[T]) Get(ctx context.Context, sess *session.Session, id string) (T, error) {
	args := m.Called(ctx, sess, id)
	return args.Get(0).(T), args.Error(1)
}

func (m *mockClient[T]) Update(ctx context.Context, sess *session.Session, id string, changes map[string]any, files ...client.File) (T, error) {
	args := m.Called(ctx, sess, id, changes, files)
	return args.Get(0).(T), args.Error(1)
}

func (m *mockClient[T]) SoftDelete(ctx context.Context, sess *session.Session, id string) error {
	return m.Called(ctx, sess, id).Error(0)
}

func (m *mockClient[T]) HardDelete(ctx context.Context, sess *session.Session, id string) error {
	return m.Called(ctx, sess, id).Error(0)
}

func (m *mockClient[T]) Restore(ctx context.Context, sess *session.Session, id string) error {
	return m.Called(ctx, sess, id).Error(0)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

func (c *memCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) published() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}
