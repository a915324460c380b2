package resource

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lmsadmin/internal/cache"
	"lmsadmin/internal/calc"
	"lmsadmin/internal/client"
	"lmsadmin/internal/domain"
	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/events"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/query"
	"lmsadmin/internal/session"
)

// Definition is everything a resource type declares about itself beyond its Go types.
type Definition struct {
	// Name is the singular noun used in dialogs, e.g. "quiz".
	Name string
	// Cascade names what a hard delete takes with it, e.g. "questions and submissions".
	Cascade string
	// Uploads are the multipart file fields the update endpoint accepts.
	Uploads []string
}

type Deps struct {
	Cache  Cache
	TTL    time.Duration
	Events Publisher
	Now    func() time.Time
}

type ListView struct {
	Items      []any       `json:"items"`
	Meta       domain.Meta `json:"meta"`
	Footer     calc.Footer `json:"footer"`
	Key        string      `json:"key"`
	IsLoading  bool        `json:"isLoading"`
	IsFetching bool        `json:"isFetching"`
	Error      string      `json:"error,omitempty"`
}

type DetailView struct {
	Record    any            `json:"record"`
	Fields    []domain.Field `json:"fields"`
	Form      any            `json:"form"`
	Lifecycle Lifecycle      `json:"lifecycle"`
	Actions   []Action       `json:"actions"`
}

type EditResult struct {
	Record  any      `json:"record"`
	Changed []string `json:"changed"`
	List    ListView `json:"list"`
}

// Controller is the paginated resource controller for one resource type:
// record T, edit form E and list filter F.
type Controller[T Record[E], E Editable, F any] struct {
	def        Definition
	res        Client[T]
	cache      Cache
	ttl        time.Duration
	now        func() time.Time
	validate   *validator.Validate
	flight     Flight
	dispatcher *Dispatcher[T]

	mu    sync.Mutex
	views map[string]*Fetcher[T]
}

func NewController[T Record[E], E Editable, F any](def Definition, res Client[T], deps Deps) *Controller[T, E, F] {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	c := &Controller[T, E, F]{
		def:      def,
		res:      res,
		cache:    deps.Cache,
		ttl:      deps.TTL,
		now:      deps.Now,
		validate: NewValidator(),
		views:    map[string]*Fetcher[T]{},
	}
	c.dispatcher = NewDispatcher(res, def.Name, def.Cascade, deps.Events, deps.Now, c.invalidate)
	return c
}

func (c *Controller[T, E, F]) Path() string {
	return c.res.Endpoint().Path
}

// List loads one page for the session's view. Without an explicit
// isDeleted filter only active records are listed.
func (c *Controller[T, E, F]) List(ctx context.Context, sess *session.Session, raw url.Values) (ListView, error) {
	if sess == nil {
		return ListView{}, errdefs.ErrUnauthenticated
	}
	values, err := c.canonical(raw)
	if err != nil {
		return ListView{}, err
	}
	st := c.view(sess).Fetch(ctx, sess, values)
	if st.Err != nil {
		return c.listView(st), st.Err
	}
	return c.listView(st), nil
}

func (c *Controller[T, E, F]) Detail(ctx context.Context, sess *session.Session, id string) (DetailView, error) {
	rec, err := c.res.Get(ctx, sess, id)
	if err != nil {
		return DetailView{}, err
	}
	lc := LifecycleOf(rec.Deleted())
	return DetailView{
		Record:    rec.Row(c.now()),
		Fields:    rec.Detail(),
		Form:      rec.EditForm(),
		Lifecycle: lc,
		Actions:   Allowed(lc),
	}, nil
}

// Dialog returns the confirmation copy for an action the record currently allows.
func (c *Controller[T, E, F]) Dialog(ctx context.Context, sess *session.Session, id string, a Action) (Dialog, error) {
	rec, err := c.res.Get(ctx, sess, id)
	if err != nil {
		return Dialog{}, err
	}
	if _, err := Next(LifecycleOf(rec.Deleted()), a); err != nil {
		return Dialog{}, err
	}
	return c.dispatcher.Dialog(a)
}

// Act runs a soft delete, hard delete or restore and returns the refetched list.
func (c *Controller[T, E, F]) Act(ctx context.Context, sess *session.Session, id string, a Action, confirm string) (ListView, error) {
	rec, err := c.res.Get(ctx, sess, id)
	if err != nil {
		return ListView{}, err
	}
	if err := c.dispatcher.Execute(ctx, sess, id, LifecycleOf(rec.Deleted()), a, confirm); err != nil {
		return ListView{}, err
	}
	return c.refetch(ctx, sess), nil
}

// Update opens the edit form on the current record, applies the patch and
// sends only what changed. Nothing is sent unless the form validates.
func (c *Controller[T, E, F]) Update(ctx context.Context, sess *session.Session, id string, patch map[string]any, files ...client.File) (EditResult, error) {
	for _, f := range files {
		if !slices.Contains(c.def.Uploads, f.Field) {
			return EditResult{}, errdefs.NewValidationError(f.Field, fmt.Sprintf("%s does not accept file uploads", f.Field))
		}
	}

	rec, err := c.res.Get(ctx, sess, id)
	if err != nil {
		return EditResult{}, err
	}
	from := LifecycleOf(rec.Deleted())
	if _, err := Next(from, ActionEdit); err != nil {
		return EditResult{}, err
	}

	form, err := NewForm(rec.EditForm(), c.validate)
	if err != nil {
		return EditResult{}, err
	}
	if err := form.Apply(patch); err != nil {
		return EditResult{}, err
	}
	if err := form.Validate(); err != nil {
		return EditResult{}, err
	}
	changes, err := form.Changes()
	if err != nil && len(files) == 0 {
		return EditResult{}, err
	}
	if changes == nil {
		changes = map[string]any{}
	}

	updated, err := c.dispatcher.Edit(ctx, sess, id, from, changes, files...)
	if err != nil {
		return EditResult{}, err
	}

	changed := make([]string, 0, len(changes)+len(files))
	for name := range changes {
		changed = append(changed, name)
	}
	for _, f := range files {
		changed = append(changed, f.Field)
	}
	slices.Sort(changed)

	return EditResult{
		Record:  updated.Row(c.now()),
		Changed: changed,
		List:    c.refetch(ctx, sess),
	}, nil
}

func (c *Controller[T, E, F]) canonical(raw url.Values) (url.Values, error) {
	if raw == nil {
		raw = url.Values{}
	}
	if !raw.Has("isDeleted") {
		raw.Set("isDeleted", "false")
	}

	var p query.Params
	filter := new(F)
	if err := query.Decode(raw, &p, filter); err != nil {
		return nil, errdefs.NewValidationError("query", err.Error())
	}
	return query.Encode(p, filter, c.res.Endpoint().Sort)
}

func (c *Controller[T, E, F]) view(sess *session.Session) *Fetcher[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.views[sess.UserID]
	if !ok {
		f = NewFetcher(c.res, c.cache, &c.flight, c.ttl, c.now)
		c.views[sess.UserID] = f
	}
	return f
}

// invalidate drops every cached page of the resource and marks every view
// stale. Loads already in flight are detached first so none of them can put
// a pre-mutation page back.
func (c *Controller[T, E, F]) invalidate(ctx context.Context, _ *session.Session) {
	c.flight.Invalidate()
	if err := c.cache.DeletePrefix(ctx, c.Path()+"?"); err != nil {
		logging.FromContext(ctx).Warn(ctx, "list cache invalidation failed", zap.String("resource", c.Path()), zap.Error(err))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.views {
		f.Invalidate()
	}
}

func (c *Controller[T, E, F]) refetch(ctx context.Context, sess *session.Session) ListView {
	return c.listView(c.view(sess).Refetch(ctx, sess))
}

func (c *Controller[T, E, F]) listView(st State[T]) ListView {
	now := c.now()
	v := ListView{
		Items:      make([]any, len(st.Items)),
		Meta:       st.Meta,
		Footer:     st.Footer,
		Key:        st.Key,
		IsLoading:  st.IsLoading,
		IsFetching: st.IsFetching,
	}
	for i, rec := range st.Items {
		v.Items[i] = rec.Row(now)
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	return v
}
