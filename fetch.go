package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// throttleRetryDelay is the fixed backoff before the single automatic
// retry of a throttled listing request.
const throttleRetryDelay = 500 * time.Millisecond

// pageLoadedMsg delivers a completed listing page. The token is matched
// against the cache generation; a stale completion is a no-op.
type pageLoadedMsg struct {
	key   string
	token int
	page  Page
	err   error
}

// headLoadedMsg delivers object metadata for the detail page.
type headLoadedMsg struct {
	key  string
	meta ObjectMeta
	err  error
}

// objectDeletedMsg is the completion of a delete request.
type objectDeletedMsg struct {
	key string
	err error
}

// fetchPage lists one page of a container. Requests are fire-and-forget:
// navigating away does not cancel the transport call, the stale-token
// check discards the result instead. A throttled response is retried
// exactly once after a fixed delay; every other failure is surfaced.
func fetchPage(store Store, c Container, token int, pageToken string, log *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		page, err := store.ListChildren(context.Background(), c, pageToken)
		if err != nil && IsRetryable(err) {
			log.Warn("listing throttled, retrying once",
				zap.String("container", c.Key()))
			time.Sleep(throttleRetryDelay)
			page, err = store.ListChildren(context.Background(), c, pageToken)
		}
		if err != nil {
			log.Error("listing failed",
				zap.String("container", c.Key()), zap.Error(err))
		}
		return pageLoadedMsg{key: c.Key(), token: token, page: page, err: err}
	}
}

// fetchHead loads object metadata asynchronously.
func fetchHead(store Store, bucket, key string, log *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		meta, err := store.HeadObject(context.Background(), bucket, key)
		if err != nil {
			log.Error("head failed", zap.String("key", key), zap.Error(err))
		}
		return headLoadedMsg{key: key, meta: meta, err: err}
	}
}

// deleteObject removes an object asynchronously. Deletes always go
// through the confirmation dialog before this is issued.
func deleteObject(store Store, bucket, key string, log *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		err := store.DeleteObject(context.Background(), bucket, key)
		if err != nil {
			log.Error("delete failed", zap.String("key", key), zap.Error(err))
		}
		return objectDeletedMsg{key: key, err: err}
	}
}

// ensureListing begins a load for the current container unless its
// listing is already cached or in flight. Exactly one outstanding
// request per container is maintained through the cache generation.
func (m *Model) ensureListing() tea.Cmd {
	c := m.nav.Current()
	l := m.cache.Get(c.Key())
	if l.Status != ListingNotLoaded {
		return nil
	}
	token := m.cache.BeginLoad(c.Key())
	return fetchPage(m.store, c, token, "", m.log)
}

// reloadListing invalidates the current container and refetches it.
func (m *Model) reloadListing() tea.Cmd {
	c := m.nav.Current()
	m.cache.Invalidate(c.Key())
	token := m.cache.BeginLoad(c.Key())
	return fetchPage(m.store, c, token, "", m.log)
}

// loadMore continues pagination for the current container. Fired only
// when the user scrolls past the loaded tail, never automatically, so
// remote call volume stays bounded and user-visible. The next page is
// never requested while one is already in flight.
func (m *Model) loadMore() tea.Cmd {
	c := m.nav.Current()
	l := m.cache.Get(c.Key())
	if l.Status != ListingLoaded || !l.HasMore {
		return nil
	}
	token := m.cache.BeginLoad(c.Key())
	return fetchPage(m.store, c, token, l.NextToken, m.log)
}

// applyPage folds a listing completion into the cache and keeps the
// cursor within the new visible range.
func (m *Model) applyPage(msg pageLoadedMsg) {
	if msg.err != nil {
		m.cache.MarkFailed(msg.key, msg.token, msg.err)
	} else {
		m.cache.AppendPage(msg.key, msg.token, msg.page.Entries, msg.page.NextToken, msg.page.HasMore)
	}
	if msg.key == m.nav.Current().Key() {
		m.clampCursor()
	}
}
