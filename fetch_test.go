package main

import (
	"context"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore implements Store with pluggable hooks. Commands run
// synchronously in tests, so plain counters are fine.
type fakeStore struct {
	listFn     func(c Container, pageToken string) (Page, error)
	headFn     func(bucket, key string) (ObjectMeta, error)
	fetchFn    func(bucket, key string, maxBytes int64) ([]byte, error)
	downloadFn func(ctx context.Context, bucket, key, path string, progress func(int64)) error
	uploadFn   func(ctx context.Context, path, bucket, key string, progress func(int64)) error
	deleteFn   func(bucket, key string) error

	listCalls   int
	deleteCalls int
}

func (f *fakeStore) ListChildren(_ context.Context, c Container, pageToken string) (Page, error) {
	f.listCalls++
	if f.listFn == nil {
		return Page{}, nil
	}
	return f.listFn(c, pageToken)
}

func (f *fakeStore) HeadObject(_ context.Context, bucket, key string) (ObjectMeta, error) {
	if f.headFn == nil {
		return ObjectMeta{Bucket: bucket, Key: key}, nil
	}
	return f.headFn(bucket, key)
}

func (f *fakeStore) FetchPrefix(_ context.Context, bucket, key string, maxBytes int64) ([]byte, error) {
	if f.fetchFn == nil {
		return nil, nil
	}
	return f.fetchFn(bucket, key, maxBytes)
}

func (f *fakeStore) Download(ctx context.Context, bucket, key, path string, progress func(int64)) error {
	if f.downloadFn == nil {
		return nil
	}
	return f.downloadFn(ctx, bucket, key, path, progress)
}

func (f *fakeStore) Upload(ctx context.Context, path, bucket, key string, progress func(int64)) error {
	if f.uploadFn == nil {
		return nil
	}
	return f.uploadFn(ctx, path, bucket, key, progress)
}

func (f *fakeStore) DeleteObject(_ context.Context, bucket, key string) error {
	f.deleteCalls++
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(bucket, key)
}

func testConfig(t *testing.T) *Config {
	return &Config{
		DownloadDir:     t.TempDir(),
		PageSize:        300,
		PreviewMaxBytes: 1 << 20,
	}
}

func newTestModel(t *testing.T, store Store, root Container) Model {
	return NewModel(testConfig(t), store, root, zap.NewNop())
}

func throttledErr() error {
	return classify("List", "b", "", &smithy.GenericAPIError{Code: "SlowDown"})
}

func pageOf(names ...string) Page {
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Kind: EntryObject, Name: n, Key: n}
	}
	return Page{Entries: entries}
}

func TestEnsureListingLoadsOnce(t *testing.T) {
	store := &fakeStore{listFn: func(Container, string) (Page, error) {
		return pageOf("a.txt"), nil
	}}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	cmd := m.ensureListing()
	require.NotNil(t, cmd)
	msg := cmd().(pageLoadedMsg)
	m.applyPage(msg)

	l := m.currentListing()
	assert.Equal(t, ListingLoaded, l.Status)
	assert.Equal(t, []string{"a.txt"}, entryNames(l.Items))

	// Cached: no second request.
	assert.Nil(t, m.ensureListing())
	assert.Equal(t, 1, store.listCalls)
}

func TestEnsureListingSkipsInFlight(t *testing.T) {
	store := &fakeStore{}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	require.NotNil(t, m.ensureListing())
	assert.Nil(t, m.ensureListing(), "a Loading listing must not be refetched")
}

func TestThrottledListingRetriedExactlyOnce(t *testing.T) {
	store := &fakeStore{}
	store.listFn = func(Container, string) (Page, error) {
		if store.listCalls == 1 {
			return Page{}, throttledErr()
		}
		return pageOf("a.txt"), nil
	}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	msg := m.ensureListing()().(pageLoadedMsg)
	assert.NoError(t, msg.err)
	assert.Equal(t, 2, store.listCalls)
}

func TestPersistentThrottleSurfacesAfterOneRetry(t *testing.T) {
	store := &fakeStore{listFn: func(Container, string) (Page, error) {
		return Page{}, throttledErr()
	}}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	msg := m.ensureListing()().(pageLoadedMsg)
	assert.ErrorIs(t, msg.err, ErrThrottled)
	assert.Equal(t, 2, store.listCalls, "one retry, then give up")

	m.applyPage(msg)
	assert.Equal(t, ListingFailed, m.currentListing().Status)
}

func TestNonRetryableFailureNotRetried(t *testing.T) {
	store := &fakeStore{listFn: func(Container, string) (Page, error) {
		return Page{}, classify("List", "pics", "", &smithy.GenericAPIError{Code: "AccessDenied"})
	}}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	msg := m.ensureListing()().(pageLoadedMsg)
	assert.ErrorIs(t, msg.err, ErrAccessDenied)
	assert.Equal(t, 1, store.listCalls)
}

func TestEmptyListingIsLoaded(t *testing.T) {
	store := &fakeStore{}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	m.applyPage(m.ensureListing()().(pageLoadedMsg))

	l := m.currentListing()
	assert.Equal(t, ListingLoaded, l.Status)
	assert.Empty(t, l.Items)
	assert.Equal(t, 0, m.cursor)
}

func TestReloadDiscardsSupersededCompletion(t *testing.T) {
	store := &fakeStore{listFn: func(Container, string) (Page, error) {
		return pageOf("old.txt"), nil
	}}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	staleCmd := m.ensureListing()
	staleMsg := staleCmd().(pageLoadedMsg)

	// Reload supersedes the in-flight request before its result lands.
	store.listFn = func(Container, string) (Page, error) {
		return pageOf("new.txt"), nil
	}
	freshCmd := m.reloadListing()

	m.applyPage(staleMsg)
	assert.Equal(t, ListingLoading, m.currentListing().Status, "stale page must not complete the reload")

	m.applyPage(freshCmd().(pageLoadedMsg))
	assert.Equal(t, []string{"new.txt"}, entryNames(m.currentListing().Items))
}

func TestLoadMoreContinuesPagination(t *testing.T) {
	store := &fakeStore{listFn: func(_ Container, pageToken string) (Page, error) {
		if pageToken == "" {
			p := pageOf("a.txt")
			p.NextToken = "t1"
			p.HasMore = true
			return p, nil
		}
		return pageOf("b.txt"), nil
	}}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	m.applyPage(m.ensureListing()().(pageLoadedMsg))
	require.True(t, m.currentListing().HasMore)

	cmd := m.loadMore()
	require.NotNil(t, cmd)
	// While the page is in flight another trigger is a no-op.
	assert.Nil(t, m.loadMore())

	m.applyPage(cmd().(pageLoadedMsg))
	l := m.currentListing()
	assert.Equal(t, []string{"a.txt", "b.txt"}, entryNames(l.Items))
	assert.False(t, l.HasMore)

	// Fully loaded: nothing more to fetch.
	assert.Nil(t, m.loadMore())
}

func TestNavigateAwayKeepsCompletionForOldContainer(t *testing.T) {
	store := &fakeStore{listFn: func(c Container, _ string) (Page, error) {
		if c.Prefix == "" {
			return Page{Entries: []Entry{{Kind: EntryDir, Name: "sub", Key: "sub/"}}}, nil
		}
		return pageOf("deep.txt"), nil
	}}
	m := newTestModel(t, store, Container{Bucket: "pics"})

	slowCmd := m.ensureListing()

	// User descends before the bucket listing lands (entry known from a
	// previous session, say). The completion still caches under its own
	// key and never bleeds into the current container.
	require.True(t, m.nav.Push(Container{Bucket: "pics", Prefix: "sub/"}))
	m.applyPage(m.ensureListing()().(pageLoadedMsg))
	m.applyPage(slowCmd().(pageLoadedMsg))

	assert.Equal(t, []string{"deep.txt"}, entryNames(m.currentListing().Items))
	assert.Equal(t, []string{"sub"}, entryNames(m.cache.Get("pics").Items))
}
