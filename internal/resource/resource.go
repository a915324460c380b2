// Package resource is the paginated resource controller shared by every admin
// screen: list fetching, lifecycle actions, detail rendering and edit forms.
package resource

import (
	"context"
	"net/url"
	"time"

	"lmsadmin/internal/client"
	"lmsadmin/internal/domain"
	"lmsadmin/internal/events"
	"lmsadmin/internal/session"
)

// Record is what a resource type supplies to the controller.
type Record[E any] interface {
	RecordID() string
	Deleted() bool
	Row(now time.Time) any
	Detail() []domain.Field
	EditForm() E
}

// Editable is an edit form. Optional extras are discovered at runtime:
// Derive(domain.Touched) on the pointer, Check() error and ReadOnly() []string.
type Editable interface {
	Dependents() map[string][]string
}

// Client is the uniform backend contract; *client.Resource satisfies it.
type Client[T any] interface {
	Endpoint() client.Endpoint
	List(ctx context.Context, sess *session.Session, values url.Values) (client.Page[T], error)
	Get(ctx context.Context, sess *session.Session, id string) (T, error)
	Update(ctx context.Context, sess *session.Session, id string, changes map[string]any, files ...client.File) (T, error)
	SoftDelete(ctx context.Context, sess *session.Session, id string) error
	HardDelete(ctx context.Context, sess *session.Session, id string) error
	Restore(ctx context.Context, sess *session.Session, id string) error
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeletePrefix(ctx context.Context, prefix string) error
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}
