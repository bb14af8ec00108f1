package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestViewEmptyListing(t *testing.T) {
	m := sized(loadedModel(t, &fakeStore{}))
	out := m.View()
	assert.Contains(t, out, "Empty.")
}

func TestViewLoading(t *testing.T) {
	store := &fakeStore{}
	m := sized(newTestModel(t, store, Container{Bucket: "pics"}))
	require.NotNil(t, m.ensureListing())
	assert.Contains(t, m.View(), "Loading")
}

func TestViewFailedListingShowsRetryHint(t *testing.T) {
	m := sized(newTestModel(t, &fakeStore{}, Container{Bucket: "pics"}))
	token := m.cache.BeginLoad("pics")
	m.cache.MarkFailed("pics", token, errors.New("boom"))

	out := m.View()
	assert.Contains(t, out, "Listing failed")
	assert.Contains(t, out, "r: retry")
}

func TestViewLoadMoreFailureKeepsLoadedRows(t *testing.T) {
	store := &fakeStore{listFn: func(Container, string) (Page, error) {
		return Page{Entries: someEntries(), NextToken: "t", HasMore: true}, nil
	}}
	m := sized(loadedModel(t, store))

	store.listFn = func(Container, string) (Page, error) {
		return Page{}, errors.New("boom")
	}
	cmd := m.loadMore()
	require.NotNil(t, cmd)
	m.applyPage(cmd().(pageLoadedMsg))
	require.Equal(t, ListingFailed, m.currentListing().Status)

	out := m.View()
	assert.Contains(t, out, "a.txt", "loaded entries stay on screen")
	assert.Contains(t, out, "Loading more failed")
	assert.Contains(t, out, "r: retry")
}

func TestViewListsEntriesWithBreadcrumb(t *testing.T) {
	m := sized(loadedModel(t, &fakeStore{}, someEntries()...))
	out := m.View()
	assert.Contains(t, out, "buckets / pics")
	assert.Contains(t, out, "raw/")
	assert.Contains(t, out, "a.txt")
}

func TestViewHasMoreMarker(t *testing.T) {
	store := &fakeStore{listFn: func(Container, string) (Page, error) {
		return Page{Entries: someEntries(), NextToken: "t", HasMore: true}, nil
	}}
	m := sized(loadedModel(t, store))
	assert.Contains(t, m.View(), "more")
}

func TestViewWindowsLongListings(t *testing.T) {
	names := make([]string, 200)
	entries := make([]Entry, 200)
	for i := range entries {
		names[i] = string(rune('a'+i%26)) + ".txt"
		entries[i] = Entry{Kind: EntryObject, Name: names[i], Key: names[i]}
	}
	m := sized(loadedModel(t, &fakeStore{}, entries...))
	m.cursor = 150

	out := m.View()
	assert.Contains(t, out, "above")
	assert.Contains(t, out, "below")
}

func TestViewEveryModeRenders(t *testing.T) {
	m := sized(loadedModel(t, &fakeStore{}, someEntries()...))
	m.pending = &pendingAction{prompt: "Overwrite?"}
	m.detailEntry = someEntries()[1]
	m.preview = Preview{Key: "a.txt", Text: "hello"}
	m.localPath = "."
	m.localItems = []LocalItem{{Name: "..", IsDir: true}}

	for _, md := range []mode{modeBrowse, modeFilter, modeConfirm, modeHelp, modePreview, modeDetail, modeUpload} {
		m.mode = md
		assert.NotEmpty(t, m.View(), "mode %d must render", md)
	}
}

func TestViewZeroSizeDoesNotPanic(t *testing.T) {
	m := loadedModel(t, &fakeStore{}, someEntries()...)
	assert.NotEmpty(t, m.View())
}
