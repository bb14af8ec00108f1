package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Styles - Minimalistic theme
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff"))

	bucketStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc9900")).
			Bold(true)

	directoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0066cc")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbbbbb"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#cc0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#006600")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffcc00")).
			Underline(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#999999")).
			Padding(1, 3)

	pageStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

// View renders the page for the current mode. Rendering is a pure
// projection of the model: no state changes here.
func (m Model) View() string {
	switch m.mode {
	case modeBrowse, modeFilter:
		return m.viewBrowser()
	case modeConfirm:
		return m.viewConfirm()
	case modeHelp:
		return m.viewHelp()
	case modePreview:
		return m.viewPreview()
	case modeDetail:
		return m.viewDetail()
	case modeUpload:
		return m.viewUpload()
	}
	return ""
}

// listHeight is how many entry rows fit on the browser page.
func (m Model) listHeight() int {
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}

// viewBrowser renders the listing page.
func (m Model) viewBrowser() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.nav.Breadcrumb()))
	s.WriteString("\n\n")

	if m.notifyErr != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.notifyErr)))
		s.WriteString("\n\n")
	} else if m.notification != "" {
		s.WriteString(successStyle.Render(m.notification))
		s.WriteString("\n\n")
	}

	listing := m.currentListing()
	switch listing.Status {
	case ListingFailed:
		// A failed load-more keeps what is already loaded on screen,
		// with the error inline below the rows.
		if len(listing.Items) > 0 {
			m.writeEntryRows(&s, listing)
			s.WriteString(errorStyle.Render(fmt.Sprintf("Loading more failed: %s", listing.Err)))
			s.WriteString("\n")
			s.WriteString(helpStyle.Render("r: retry"))
			s.WriteString("\n")
			break
		}
		s.WriteString(errorStyle.Render(fmt.Sprintf("Listing failed: %s", listing.Err)))
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("r: retry"))
		s.WriteString("\n")

	case ListingNotLoaded, ListingLoading:
		if len(listing.Items) == 0 {
			s.WriteString(m.spin.View())
			s.WriteString(" Loading...\n")
			break
		}
		// Load-more in flight: keep showing what we have.
		fallthrough

	case ListingLoaded:
		m.writeEntryRows(&s, listing)
	}

	s.WriteString("\n")
	s.WriteString(m.footer())

	return pageStyle.Render(s.String())
}

// writeEntryRows renders the filtered entries, windowed around the cursor
// so arbitrarily long listings stay on screen.
func (m Model) writeEntryRows(s *strings.Builder, listing *Listing) {
	visible := m.visibleEntries()
	if len(visible) == 0 {
		if m.filterInput.Value() != "" {
			s.WriteString(dimStyle.Render("No entries match the filter.\n"))
		} else {
			s.WriteString(dimStyle.Render("Empty.\n"))
		}
		return
	}

	height := m.listHeight()
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := start + height
	if end > len(visible) {
		end = len(visible)
	}

	if start > 0 {
		s.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d above\n", start)))
	}

	needle := m.filterInput.Value()
	for i := start; i < end; i++ {
		e := visible[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		var line string
		switch e.Kind {
		case EntryBucket:
			line = fmt.Sprintf("%s %s", cursor, styledName(e.Name+"/", needle, bucketStyle))
		case EntryDir:
			line = fmt.Sprintf("%s %s", cursor, styledName(e.Name+"/", needle, directoryStyle))
		case EntryObject:
			line = fmt.Sprintf("%s %s  %s  %s",
				cursor,
				styledName(e.Name, needle, fileStyle),
				dimStyle.Render(humanize.Bytes(uint64(e.Size))),
				dimStyle.Render(e.LastModified.Format("2006-01-02 15:04")))
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	below := len(visible) - end
	switch {
	case below > 0:
		s.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d below\n", below)))
	case listing.HasMore && listing.Status == ListingLoading:
		s.WriteString(dimStyle.Render(fmt.Sprintf("  %s loading more...\n", m.spin.View())))
	case listing.HasMore && listing.Status == ListingLoaded:
		s.WriteString(dimStyle.Render("  ... more (j to load)\n"))
	}
}

// styledName renders an entry name with the filter match underlined.
func styledName(name, needle string, base lipgloss.Style) string {
	if needle == "" {
		return base.Render(name)
	}
	idx := strings.Index(name, needle)
	if idx < 0 {
		return base.Render(name)
	}
	return base.Render(name[:idx]) +
		matchStyle.Render(needle) +
		base.Render(name[idx+len(needle):])
}

// footer renders the filter input, transfer progress, and the short help
// line at the bottom of the browser page.
func (m Model) footer() string {
	var s strings.Builder

	if m.mode == modeFilter {
		s.WriteString(m.filterInput.View())
		s.WriteString("\n")
	} else if f := m.filterInput.Value(); f != "" {
		s.WriteString(dimStyle.Render(fmt.Sprintf("filter: %s (Esc clears)", f)))
		s.WriteString("\n")
	}

	if job := m.transferJob; job != nil && job.Status == JobRunning {
		verb := "Downloading"
		if job.Kind == JobUpload {
			verb = "Uploading"
		}
		percent := 0.0
		if job.Total > 0 {
			percent = float64(job.Received) / float64(job.Total)
		}
		s.WriteString(fmt.Sprintf("%s %s  %s %s / %s\n",
			verb, job.Key,
			m.progressBar.ViewAs(percent),
			humanize.Bytes(uint64(job.Received)),
			humanize.Bytes(uint64(job.Total))))
	}

	s.WriteString(helpStyle.Render("j/k: move • Enter: open • h: back • /: filter • d: download • p: preview • u: upload • ?: help • q: quit"))
	return s.String()
}

// viewConfirm renders the yes/no dialog over an otherwise empty page.
func (m Model) viewConfirm() string {
	prompt := ""
	if m.pending != nil {
		prompt = m.pending.prompt
	}
	dialog := dialogStyle.Render(prompt + "\n\n" + helpStyle.Render("y: yes • n/Esc: no"))
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
	}
	return dialog
}

// viewPreview renders the object preview page.
func (m Model) viewPreview() string {
	var s strings.Builder

	title := m.preview.Key
	switch {
	case m.preview.Binary:
		title += "  [binary]"
	case m.preview.Language != "":
		title += "  [" + m.preview.Language + "]"
	}
	if m.preview.Truncated {
		title += "  (truncated)"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(m.previewView.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("j/k: scroll • d: download • h/Esc: back • q: quit"))

	return pageStyle.Render(s.String())
}

// viewDetail renders object metadata.
func (m Model) viewDetail() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.detailEntry.Key))
	s.WriteString("\n\n")

	if m.detailLoading {
		s.WriteString(m.spin.View())
		s.WriteString(" Loading...\n")
	} else {
		d := m.detail
		s.WriteString(fmt.Sprintf("Size           %s (%d bytes)\n", humanize.Bytes(uint64(d.Size)), d.Size))
		s.WriteString(fmt.Sprintf("Last modified  %s\n", d.LastModified.Format("2006-01-02 15:04:05 MST")))
		s.WriteString(fmt.Sprintf("ETag           %s\n", d.ETag))
		if d.ContentType != "" {
			s.WriteString(fmt.Sprintf("Content type   %s\n", d.ContentType))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("d: download • p: preview • y: copy path • e: copy etag • h/Esc: back"))

	return pageStyle.Render(s.String())
}

// viewHelp renders the key binding reference from the key map.
func (m Model) viewHelp() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("s3surf - Help"))
	s.WriteString("\n\n")

	for _, section := range m.keys.helpSections() {
		s.WriteString(selectedStyle.Render(section.title))
		s.WriteString("\n")
		for _, b := range section.bindings {
			h := b.Help()
			s.WriteString(fmt.Sprintf("  %-12s %s\n", h.Key, h.Desc))
		}
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("Esc/?: back • q: quit"))
	return pageStyle.Render(s.String())
}

// viewUpload renders the local file browser.
func (m Model) viewUpload() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("Upload from: %s", m.localPath)))
	s.WriteString("\n\n")

	if len(m.localItems) == 0 {
		s.WriteString(dimStyle.Render("Empty.\n"))
	}
	for i, item := range m.localItems {
		cursor := " "
		if i == m.localCursor {
			cursor = ">"
		}

		var line string
		if item.IsDir {
			line = fmt.Sprintf("%s %s", cursor, directoryStyle.Render(item.Name+"/"))
		} else {
			line = fmt.Sprintf("%s %s  %s",
				cursor,
				fileStyle.Render(item.Name),
				dimStyle.Render(humanize.Bytes(uint64(item.Size))))
		}
		if i == m.localCursor {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("j/k: move • Enter: select • h: parent • Esc: cancel"))
	return pageStyle.Render(s.String())
}
