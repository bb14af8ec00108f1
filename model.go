package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// mode is the input state: which page is active and where keystrokes go.
// Transitions are total, every key in every mode has a defined effect
// (the default being a no-op). Quit is a side exit, not a mode.
type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeConfirm
	modeHelp
	modePreview
	modeDetail
	modeUpload
)

// confirmKind says what a confirmed dialog should start.
type confirmKind int

const (
	confirmDownload confirmKind = iota
	confirmUpload
	confirmDelete
)

// pendingAction is the action parked behind a confirmation dialog.
type pendingAction struct {
	prompt string
	kind   confirmKind
	bucket string
	key    string
	path   string
	entry  Entry
	size   int64
}

// notifyMsg sets the status line from an async command.
type notifyMsg struct {
	text    string
	isError bool
}

// localFilesMsg delivers a local directory listing for the upload browser.
type localFilesMsg struct {
	items []LocalItem
	path  string
	err   error
}

// LocalItem is a local file or directory in the upload browser.
type LocalItem struct {
	Name  string
	IsDir bool
	Size  int64
}

// Model is the application state. It exclusively owns the listing cache
// and job state; asynchronous work reaches it only through messages.
type Model struct {
	cfg   *Config
	store Store
	log   *zap.Logger
	keys  KeyMap

	nav   *NavStack
	cache *ListingCache

	mode    mode
	cursor  int
	pending *pendingAction

	// helpReturn is the mode the help overlay goes back to.
	helpReturn mode

	filterInput textinput.Model

	preview     Preview
	previewView viewport.Model
	previewJob  *Job

	detail        ObjectMeta
	detailEntry   Entry
	detailLoading bool

	transferJob *Job
	jobSeq      int

	spin        spinner.Model
	progressBar progress.Model

	notification string
	notifyErr    error

	// Upload browser state, local side.
	localItems  []LocalItem
	localPath   string
	localCursor int

	width  int
	height int
}

// NewModel creates the initial model rooted at the given container.
func NewModel(cfg *Config, store Store, root Container, log *zap.Logger) Model {
	input := textinput.New()
	input.Prompt = "/"
	input.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		cfg:         cfg,
		store:       store,
		log:         log,
		keys:        DefaultKeyMap,
		nav:         NewNavStack(root),
		cache:       NewListingCache(),
		filterInput: input,
		previewView: viewport.New(80, 24),
		spin:        sp,
		progressBar: progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts the spinner and the first listing fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.ensureListing())
}

// Update routes messages. Keystrokes dispatch on the current mode; async
// completions fold into the cache and job slots with staleness checks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.previewView.Width = msg.Width - 4
		m.previewView.Height = msg.Height - 6
		m.progressBar.Width = min(msg.Width-20, 50)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeFilter:
			return m.updateFilter(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeHelp:
			return m.updateHelp(msg)
		case modePreview:
			return m.updatePreview(msg)
		case modeDetail:
			return m.updateDetail(msg)
		case modeUpload:
			return m.updateUpload(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case pageLoadedMsg:
		m.applyPage(msg)
		return m, nil

	case headLoadedMsg:
		if m.mode == modeDetail && msg.key == m.detailEntry.Key {
			m.detailLoading = false
			if msg.err != nil {
				m.notifyError(msg.err)
				m.mode = modeBrowse
			} else {
				m.detail = msg.meta
			}
		}
		return m, nil

	case jobProgressMsg:
		return m, m.applyJobProgress(msg)

	case jobDoneMsg:
		return m, m.applyJobDone(msg)

	case previewReadyMsg:
		m.applyPreviewReady(msg)
		return m, nil

	case notifyMsg:
		if msg.isError {
			m.notifyError(fmt.Errorf("%s", msg.text))
		} else {
			m.notify(msg.text)
		}
		return m, nil

	case objectDeletedMsg:
		if msg.err != nil {
			m.notifyError(msg.err)
			return m, nil
		}
		m.notify(fmt.Sprintf("Deleted %s", msg.key))
		return m, m.reloadListing()

	case localFilesMsg:
		if msg.err != nil {
			m.notifyError(msg.err)
			return m, nil
		}
		m.localItems = msg.items
		m.localPath = msg.path
		m.localCursor = 0
		m.mode = modeUpload
		return m, nil
	}

	return m, nil
}

// currentListing returns the cached listing for the current container.
func (m *Model) currentListing() *Listing {
	return m.cache.Get(m.nav.Current().Key())
}

// visibleEntries applies the live filter to the current listing. The
// filter is a projection: the cache itself is never mutated.
func (m *Model) visibleEntries() []Entry {
	items := m.currentListing().Items
	needle := m.filterInput.Value()
	if needle == "" {
		return items
	}
	var out []Entry
	for _, e := range items {
		if strings.Contains(e.Name, needle) {
			out = append(out, e)
		}
	}
	return out
}

// selectedEntry returns the entry under the cursor, if any.
func (m *Model) selectedEntry() (Entry, bool) {
	visible := m.visibleEntries()
	if len(visible) == 0 || m.cursor < 0 || m.cursor >= len(visible) {
		return Entry{}, false
	}
	return visible[m.cursor], true
}

// clampCursor keeps 0 <= cursor < len(visible) whenever the list is
// non-empty.
func (m *Model) clampCursor() {
	visible := len(m.visibleEntries())
	if visible == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= visible {
		m.cursor = visible - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) notify(text string) {
	m.notification = text
	m.notifyErr = nil
}

func (m *Model) notifyError(err error) {
	m.notifyErr = err
	m.notification = ""
}

func (m *Model) clearNotification() {
	m.notification = ""
	m.notifyErr = nil
}

// updateBrowse handles keys on the listing page.
func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		visible := len(m.visibleEntries())
		if m.cursor < visible-1 {
			m.cursor++
		} else {
			// Scrolled past the loaded tail: continue pagination.
			return m, m.loadMore()
		}

	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= m.pageStep()
		m.clampCursor()

	case key.Matches(msg, m.keys.PageDown):
		m.cursor += m.pageStep()
		m.clampCursor()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0

	case key.Matches(msg, m.keys.Bottom):
		if visible := len(m.visibleEntries()); visible > 0 {
			m.cursor = visible - 1
		}

	case key.Matches(msg, m.keys.Open):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		m.clearNotification()
		if entry.IsContainer() {
			return m, m.descend(entry)
		}
		m.detailEntry = entry
		m.detailLoading = true
		m.mode = modeDetail
		return m, fetchHead(m.store, m.nav.Current().Bucket, entry.Key, m.log)

	case key.Matches(msg, m.keys.Back):
		m.ascend()

	case key.Matches(msg, m.keys.Root):
		m.nav.Reset()
		m.resetListView()
		return m, m.ensureListing()

	case key.Matches(msg, m.keys.Reload):
		m.clearNotification()
		return m, m.reloadListing()

	case key.Matches(msg, m.keys.ClearAll):
		m.cache.Clear()
		m.notify("Listing cache cleared")
		return m, m.ensureListing()

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Download):
		entry, ok := m.selectedEntry()
		if ok && entry.Kind == EntryObject {
			return m.requestDownload(entry)
		}

	case key.Matches(msg, m.keys.Preview):
		entry, ok := m.selectedEntry()
		if ok && entry.Kind == EntryObject {
			return m, m.startPreview(m.nav.Current().Bucket, entry)
		}

	case key.Matches(msg, m.keys.Upload):
		if !m.nav.Current().IsRoot() {
			return m, loadLocalFiles(".")
		}

	case key.Matches(msg, m.keys.Delete):
		entry, ok := m.selectedEntry()
		if ok && entry.Kind == EntryObject {
			m.pending = &pendingAction{
				prompt: fmt.Sprintf("Delete s3://%s/%s?", m.nav.Current().Bucket, entry.Key),
				kind:   confirmDelete,
				bucket: m.nav.Current().Bucket,
				key:    entry.Key,
			}
			m.mode = modeConfirm
		}

	case key.Matches(msg, m.keys.CopyPath):
		entry, ok := m.selectedEntry()
		if ok {
			return m, copyToClipboard("path", m.entryURI(entry))
		}

	case key.Matches(msg, m.keys.CancelJob):
		m.cancelTransfer()

	case key.Matches(msg, m.keys.Help):
		m.helpReturn = modeBrowse
		m.mode = modeHelp

	case key.Matches(msg, m.keys.Cancel):
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.clampCursor()
		}
	}

	return m, nil
}

// descend pushes the selected container and fetches it if unknown.
func (m *Model) descend(entry Entry) tea.Cmd {
	child := m.nav.Current().Child(entry)
	if !m.nav.Push(child) {
		return nil
	}
	m.resetListView()
	return m.ensureListing()
}

// ascend pops to the parent. The in-flight child listing, if any, is not
// cancelled; its completion goes stale against the cache generation.
func (m *Model) ascend() {
	if m.nav.Depth() == 1 {
		return
	}
	m.nav.Pop()
	m.resetListView()
}

// resetListView clears per-container view state after navigation.
func (m *Model) resetListView() {
	m.cursor = 0
	m.filterInput.SetValue("")
	m.clearNotification()
}

// requestDownload starts a download, asking for confirmation first when
// the destination already exists.
func (m Model) requestDownload(entry Entry) (tea.Model, tea.Cmd) {
	bucket := m.nav.Current().Bucket
	dest := m.cfg.DownloadPath(entry.Name)
	if _, err := os.Stat(dest); err == nil {
		m.pending = &pendingAction{
			prompt: fmt.Sprintf("Overwrite %s?", dest),
			kind:   confirmDownload,
			bucket: bucket,
			path:   dest,
			entry:  entry,
		}
		m.mode = modeConfirm
		return m, nil
	}
	return m, m.startDownload(bucket, entry, dest)
}

// entryURI builds the s3:// path for the clipboard.
func (m *Model) entryURI(entry Entry) string {
	c := m.nav.Current()
	if c.IsRoot() {
		return "s3://" + entry.Name
	}
	return "s3://" + c.Bucket + "/" + entry.Key
}

// pageStep is the cursor distance for page up/down.
func (m *Model) pageStep() int {
	step := m.height - 8
	if step < 1 {
		step = 10
	}
	return step
}

// updateFilter handles keys while the filter input is live. The visible
// list recomputes on every keystroke.
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.mode = modeBrowse
		m.clampCursor()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.filterInput.Blur()
		m.mode = modeBrowse
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.cursor = 0
	return m, cmd
}

// updateConfirm handles the yes/no dialog. Only confirm, deny and escape
// do anything.
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Confirm):
		pending := m.pending
		m.pending = nil
		m.mode = modeBrowse
		if pending == nil {
			return m, nil
		}
		switch pending.kind {
		case confirmDownload:
			return m, m.startDownload(pending.bucket, pending.entry, pending.path)
		case confirmUpload:
			return m, m.startUpload(pending.path, pending.bucket, pending.key, pending.size)
		case confirmDelete:
			return m, deleteObject(m.store, pending.bucket, pending.key, m.log)
		}

	case key.Matches(msg, m.keys.Deny), key.Matches(msg, m.keys.Cancel):
		m.pending = nil
		m.mode = modeBrowse
	}
	return m, nil
}

// updateHelp handles the help overlay.
func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Cancel):
		m.mode = m.helpReturn
	}
	return m, nil
}

// updatePreview handles keys on the preview page; scrolling goes to the
// viewport.
func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Back):
		m.mode = modeBrowse
		return m, nil

	case key.Matches(msg, m.keys.Download):
		entry, ok := m.selectedEntry()
		if ok && entry.Kind == EntryObject {
			return m.requestDownload(entry)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.helpReturn = modePreview
		m.mode = modeHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.previewView, cmd = m.previewView.Update(msg)
	return m, cmd
}

// updateDetail handles keys on the object detail page.
func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Back):
		m.mode = modeBrowse

	case key.Matches(msg, m.keys.Download):
		return m.requestDownload(m.detailEntry)

	case key.Matches(msg, m.keys.Preview):
		return m, m.startPreview(m.nav.Current().Bucket, m.detailEntry)

	case key.Matches(msg, m.keys.CopyPath):
		return m, copyToClipboard("path", m.entryURI(m.detailEntry))

	case key.Matches(msg, m.keys.CopyETag):
		if m.detail.ETag != "" {
			return m, copyToClipboard("etag", m.detail.ETag)
		}

	case key.Matches(msg, m.keys.Help):
		m.helpReturn = modeDetail
		m.mode = modeHelp
	}
	return m, nil
}

// updateUpload handles the local file browser for picking an upload
// source.
func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse

	case key.Matches(msg, m.keys.Up):
		if m.localCursor > 0 {
			m.localCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.localCursor < len(m.localItems)-1 {
			m.localCursor++
		}

	case key.Matches(msg, m.keys.Back):
		return m, loadLocalFiles(parentDir(m.localPath))

	case key.Matches(msg, m.keys.Open):
		if len(m.localItems) == 0 {
			return m, nil
		}
		item := m.localItems[m.localCursor]
		if item.IsDir {
			if item.Name == ".." {
				return m, loadLocalFiles(parentDir(m.localPath))
			}
			return m, loadLocalFiles(filepath.Join(m.localPath, item.Name))
		}
		c := m.nav.Current()
		source := filepath.Join(m.localPath, item.Name)
		m.pending = &pendingAction{
			prompt: fmt.Sprintf("Upload %s to s3://%s/%s%s?", item.Name, c.Bucket, c.Prefix, item.Name),
			kind:   confirmUpload,
			bucket: c.Bucket,
			key:    c.Prefix + item.Name,
			path:   source,
			size:   item.Size,
		}
		m.mode = modeConfirm
	}
	return m, nil
}

// loadLocalFiles lists a local directory for the upload browser,
// directories first, hidden entries skipped.
func loadLocalFiles(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := os.ReadDir(path)
		if err != nil {
			return localFilesMsg{err: classifyLocal("ReadDir", path, err)}
		}

		items := []LocalItem{{Name: "..", IsDir: true}}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			items = append(items, LocalItem{
				Name:  entry.Name(),
				IsDir: entry.IsDir(),
				Size:  info.Size(),
			})
		}

		sort.Slice(items, func(i, j int) bool {
			if items[i].IsDir != items[j].IsDir {
				return items[i].IsDir
			}
			return items[i].Name < items[j].Name
		})
		return localFilesMsg{items: items, path: path}
	}
}

// parentDir resolves the parent for the upload browser, staying relative
// when the walk started from the working directory.
func parentDir(path string) string {
	parent := filepath.Dir(path)
	if parent == "." && path == "." {
		return ".."
	}
	if parent == "" {
		return "."
	}
	return parent
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
