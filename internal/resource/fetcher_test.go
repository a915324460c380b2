package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lmsadmin/internal/client"
	"lmsadmin/internal/domain"
	"lmsadmin/internal/errdefs"
)

func assignment(id, title string) domain.Assignment {
	return domain.Assignment{Base: domain.Base{ID: id}, Title: title, TotalMarks: 80, PassMarks: 32}
}

func pageOfAssignments(page, total int, items ...domain.Assignment) client.Page[domain.Assignment] {
	return client.Page[domain.Assignment]{Items: items, Meta: domain.Meta{Page: page, Limit: 10, Total: total}}
}

func newTestFetcher(m *mockClient[domain.Assignment], c Cache) *Fetcher[domain.Assignment] {
	return NewFetcher[domain.Assignment](m, c, &Flight{}, time.Minute, fixedNow)
}

func TestFetcherLoadsAndReusesKey(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()

	f := newTestFetcher(m, newMemCache())
	values := url.Values{"page": {"1"}, "limit": {"10"}}

	st := f.Fetch(context.Background(), admin, values)
	require.NoError(t, st.Err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "assignments?limit=10&page=1", st.Key)
	assert.Equal(t, "Showing 1 to 1 of 1", st.Footer.Text)
	assert.False(t, st.IsLoading)
	assert.False(t, st.IsFetching)

	again := f.Fetch(context.Background(), admin, url.Values{"limit": {"10"}, "page": {"1"}})
	assert.Equal(t, st, again)
	m.AssertNumberOfCalls(t, "List", 1)
}

func TestFetcherChangedFilterIssuesOneRequest(t *testing.T) {
	base := url.Values{"page": {"1"}, "limit": {"10"}, "isDeleted": {"false"}, "course": {"c1"}}
	changes := map[string]string{"page": "2", "limit": "20", "isDeleted": "true", "course": "c2"}

	for field, val := range changes {
		t.Run(field, func(t *testing.T) {
			m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
			m.On("List", mock.Anything, admin, mock.Anything).Return(pageOfAssignments(1, 0), nil)

			f := newTestFetcher(m, newMemCache())
			first := f.Fetch(context.Background(), admin, base)

			next := url.Values{}
			for k, v := range base {
				next[k] = append([]string(nil), v...)
			}
			next.Set(field, val)
			second := f.Fetch(context.Background(), admin, next)

			assert.NotEqual(t, first.Key, second.Key)
			m.AssertNumberOfCalls(t, "List", 2)
		})
	}
}

func TestFetcherUsesSharedCache(t *testing.T) {
	c := newMemCache()
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()

	values := url.Values{"page": {"1"}}
	first := newTestFetcher(m, c).Fetch(context.Background(), admin, values)
	require.NoError(t, first.Err)
	assert.Equal(t, 1, c.len())

	// a second admin's view reads the page another view already loaded
	other := newTestFetcher(m, c).Fetch(context.Background(), admin, values)
	require.NoError(t, other.Err)
	require.Len(t, other.Items, 1)
	assert.Equal(t, "Essay", other.Items[0].Title)
	m.AssertNumberOfCalls(t, "List", 1)
}

func TestFetcherKeepsItemsWhileFetching(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	release := make(chan struct{})
	started := make(chan struct{})

	m.On("List", mock.Anything, admin, url.Values{"page": {"1"}}).
		Return(pageOfAssignments(1, 12, assignment("a1", "Essay")), nil).Once()
	m.On("List", mock.Anything, admin, url.Values{"page": {"2"}}).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(pageOfAssignments(2, 12, assignment("a11", "Lab")), nil).Once()

	f := newTestFetcher(m, newMemCache())
	require.NoError(t, f.Fetch(context.Background(), admin, url.Values{"page": {"1"}}).Err)

	done := make(chan State[domain.Assignment])
	go func() {
		done <- f.Fetch(context.Background(), admin, url.Values{"page": {"2"}})
	}()

	<-started
	mid := f.Snapshot()
	assert.True(t, mid.IsFetching)
	assert.False(t, mid.IsLoading)
	require.Len(t, mid.Items, 1)
	assert.Equal(t, "a1", mid.Items[0].ID)

	close(release)
	st := <-done
	require.NoError(t, st.Err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "a11", st.Items[0].ID)
	assert.False(t, st.IsFetching)
}

func TestFetcherFailureClearsItems(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	m.On("List", mock.Anything, admin, url.Values{"page": {"1"}}).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()
	m.On("List", mock.Anything, admin, url.Values{"page": {"2"}}).
		Return(client.Page[domain.Assignment]{}, &errdefs.FetchError{Status: 500, Message: "Database unavailable"}).Once()

	f := newTestFetcher(m, newMemCache())
	require.NoError(t, f.Fetch(context.Background(), admin, url.Values{"page": {"1"}}).Err)

	st := f.Fetch(context.Background(), admin, url.Values{"page": {"2"}})
	var fe *errdefs.FetchError
	require.True(t, errors.As(st.Err, &fe))
	assert.Equal(t, "Database unavailable", fe.Message)
	assert.Empty(t, st.Items)
	assert.Equal(t, domain.Meta{}, st.Meta)
}

func TestFetcherFailureIsRetried(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(client.Page[domain.Assignment]{}, &errdefs.FetchError{Status: 502, Message: "request failed"}).Once()
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()

	f := newTestFetcher(m, newMemCache())
	values := url.Values{"page": {"1"}}
	assert.Error(t, f.Fetch(context.Background(), admin, values).Err)

	st := f.Fetch(context.Background(), admin, values)
	require.NoError(t, st.Err)
	assert.Len(t, st.Items, 1)
}

func TestFetcherLastFilterWins(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	release := make(chan struct{})
	started := make(chan struct{})

	m.On("List", mock.Anything, admin, url.Values{"course": {"old"}}).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(pageOfAssignments(1, 1, assignment("old-1", "Old")), nil).Once()
	m.On("List", mock.Anything, admin, url.Values{"course": {"new"}}).
		Return(pageOfAssignments(1, 1, assignment("new-1", "New")), nil).Once()

	f := newTestFetcher(m, newMemCache())

	stale := make(chan State[domain.Assignment])
	go func() {
		stale <- f.Fetch(context.Background(), admin, url.Values{"course": {"old"}})
	}()
	<-started

	fresh := f.Fetch(context.Background(), admin, url.Values{"course": {"new"}})
	require.NoError(t, fresh.Err)

	old := <-stale
	assert.ErrorIs(t, old.Err, errdefs.ErrSuperseded)

	close(release)

	st := f.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "new-1", st.Items[0].ID)
	assert.Equal(t, "assignments?course=new", st.Key)
}

func TestFetcherSharesIdenticalLoads(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	release := make(chan struct{})
	m.On("List", mock.Anything, admin, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()

	flight := &Flight{}
	c := newMemCache()
	values := url.Values{"page": {"1"}}

	const viewers = 5
	var wg sync.WaitGroup
	results := make([]State[domain.Assignment], viewers)
	for i := range viewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f := NewFetcher[domain.Assignment](m, c, flight, time.Minute, fixedNow)
			results[i] = f.Fetch(context.Background(), admin, values)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, st := range results {
		require.NoError(t, st.Err)
		assert.Len(t, st.Items, 1)
	}
	m.AssertNumberOfCalls(t, "List", 1)
}

func TestFetcherJoinsOwnLoadOfSameKey(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	release := make(chan struct{})
	started := make(chan struct{})
	m.On("List", mock.Anything, admin, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()

	f := newTestFetcher(m, newMemCache())
	values := url.Values{"page": {"1"}}

	first := make(chan State[domain.Assignment])
	go func() { first <- f.Fetch(context.Background(), admin, values) }()
	<-started

	second := make(chan State[domain.Assignment])
	go func() { second <- f.Fetch(context.Background(), admin, values) }()

	close(release)
	for _, st := range []State[domain.Assignment]{<-first, <-second} {
		require.NoError(t, st.Err)
		require.Len(t, st.Items, 1)
		assert.Equal(t, "a1", st.Items[0].ID)
	}
	m.AssertNumberOfCalls(t, "List", 1)
}

func TestFetcherInvalidationDetachesInflightLoad(t *testing.T) {
	c := newMemCache()
	flight := &Flight{}
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	release := make(chan struct{})
	started := make(chan struct{})

	// loaded before the delete was confirmed
	m.On("List", mock.Anything, admin, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(pageOfAssignments(1, 0), nil).Once()

	values := url.Values{"page": {"1"}}
	other := NewFetcher[domain.Assignment](m, c, flight, time.Minute, fixedNow)
	stale := make(chan State[domain.Assignment])
	go func() { stale <- other.Fetch(context.Background(), admin, values) }()
	<-started

	flight.Invalidate()
	require.NoError(t, c.DeletePrefix(context.Background(), "assignments?"))

	acting := NewFetcher[domain.Assignment](m, c, flight, time.Minute, fixedNow)
	st := acting.Fetch(context.Background(), admin, values)
	require.NoError(t, st.Err)
	assert.Empty(t, st.Items)

	close(release)
	require.NoError(t, (<-stale).Err)

	m.AssertNumberOfCalls(t, "List", 2)
	data, ok := c.Get(context.Background(), acting.Key(values))
	require.True(t, ok)
	var cached client.Page[domain.Assignment]
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Empty(t, cached.Items)
}

func TestFetcherRefetchBypassesCache(t *testing.T) {
	c := newMemCache()
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay")), nil).Once()
	m.On("List", mock.Anything, admin, mock.Anything).
		Return(pageOfAssignments(1, 1, assignment("a1", "Essay (revised)")), nil).Once()

	f := newTestFetcher(m, c)
	require.NoError(t, f.Fetch(context.Background(), admin, url.Values{"page": {"1"}}).Err)

	st := f.Refetch(context.Background(), admin)
	require.NoError(t, st.Err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Essay (revised)", st.Items[0].Title)
	m.AssertNumberOfCalls(t, "List", 2)
}

func TestFetcherRefetchWithoutQuery(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	st := newTestFetcher(m, newMemCache()).Refetch(context.Background(), admin)
	assert.Equal(t, State[domain.Assignment]{}, st)
	m.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetcherCancelledCaller(t *testing.T) {
	m := &mockClient[domain.Assignment]{ep: client.Endpoint{Path: "assignments"}}
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	m.On("List", mock.Anything, admin, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(pageOfAssignments(1, 0), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	st := newTestFetcher(m, newMemCache()).Fetch(ctx, admin, url.Values{"page": {"1"}})
	assert.ErrorIs(t, st.Err, context.DeadlineExceeded)
}
