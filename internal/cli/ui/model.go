// Package ui implements the interactive terminal view of a run: a scrollable
// file list with live per-file status, a spinner, and a summary footer.
package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/FJ-cyberzilla/codex/internal/cli/hooks"
	"github.com/FJ-cyberzilla/codex/pkg/analyzer"
)

const listHeightMargin = 4

// listUpdateDebounce caps how often the list component re-syncs its items
// while status messages arrive rapidly.
const listUpdateDebounce = 50 * time.Millisecond

// Model is the bubbletea state for one analysis run.
type Model struct {
	list    list.Model
	spinner spinner.Model

	width       int
	height      int
	initialized bool
	quitting    bool

	version      string
	phaseMessage string

	// fileItems and itemMap are touched from hook messages delivered on the
	// bubbletea loop plus debounced list syncs; the lock keeps them coherent.
	fileItems []fileItem
	itemMap   map[string]int
	mu        sync.Mutex

	summary       summary
	debounceTimer *time.Timer
}

type fileItem struct {
	path     string
	status   analyzer.Status
	message  string
	duration time.Duration
}

type summary struct {
	discovered int
	passed     int
	failed     int
	fixErrors  int
	fixed      int
	skipped    int
	start      time.Time
}

// updateListMsg triggers the debounced list re-sync.
type updateListMsg struct{}

// NewModel builds the initial TUI state.
func NewModel(version string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true).Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(colorSelectedDescFg).Background(colorSelectedBg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(colorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(colorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return &Model{
		list:         l,
		spinner:      s,
		version:      version,
		phaseMessage: "Scanning...",
		fileItems:    make([]fileItem, 0, 256),
		itemMap:      make(map[string]int),
		summary:      summary{start: time.Now()},
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - listHeightMargin
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(m.width, listHeight)
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		if m.quitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case hooks.FileDiscoveredMsg:
		m.mu.Lock()
		if _, exists := m.itemMap[msg.Path]; !exists {
			m.fileItems = append(m.fileItems, fileItem{path: msg.Path, status: analyzer.StatusPending})
			m.itemMap[msg.Path] = len(m.fileItems) - 1
			m.summary.discovered++
			cmds = append(cmds, m.debounceListUpdate())
		}
		m.mu.Unlock()

	case hooks.FileStatusUpdateMsg:
		m.mu.Lock()
		idx, ok := m.itemMap[msg.Path]
		if !ok {
			m.fileItems = append(m.fileItems, fileItem{path: msg.Path})
			idx = len(m.fileItems) - 1
			m.itemMap[msg.Path] = idx
			m.summary.discovered++
		}
		item := &m.fileItems[idx]
		if isFinalStatus(msg.Status) && !isFinalStatus(item.status) {
			m.countFinal(msg.Status, msg.Message)
		}
		item.status = msg.Status
		item.message = msg.Message
		item.duration = msg.Duration
		cmds = append(cmds, m.debounceListUpdate())
		m.mu.Unlock()
		if !m.quitting && msg.Status == analyzer.StatusProcessing && m.phaseMessage != "Analyzing..." {
			m.phaseMessage = "Analyzing..."
		}

	case hooks.RunCompleteMsg:
		m.phaseMessage = "Complete"
		m.summary.passed = msg.Report.Summary.Passed
		m.summary.failed = msg.Report.Summary.Failed
		m.summary.fixErrors = msg.Report.Summary.FixErrors
		m.summary.fixed = msg.Report.Summary.Fixed
		if msg.Report.Summary.Interrupted {
			m.phaseMessage = "Interrupted"
		}

	case updateListMsg:
		m.mu.Lock()
		items := make([]list.Item, len(m.fileItems))
		for i, item := range m.fileItems {
			items[i] = item
		}
		m.mu.Unlock()
		cmds = append(cmds, m.list.SetItems(items))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return "Initializing..."
	}

	headerLeft := fmt.Sprintf("codex v%s", m.version)
	headerRight := m.phaseMessage
	if m.phaseMessage != "Complete" && m.phaseMessage != "Interrupted" {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	headerPad := ""
	if w := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight); w > 0 {
		headerPad = lipgloss.PlaceHorizontal(w, lipgloss.Center, " ")
	}
	header := headerStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, headerLeft, headerPad, headerRight))

	elapsed := time.Since(m.summary.start).Round(time.Millisecond)
	footerLeft := fmt.Sprintf(
		"Passed: %d | Failed: %d | Fix errors: %d | Fixed: %d | Skipped: %d | Files: %d | Elapsed: %s",
		m.summary.passed, m.summary.failed, m.summary.fixErrors,
		m.summary.fixed, m.summary.skipped, m.summary.discovered, elapsed,
	)
	footerRight := "q: quit"
	footerPad := ""
	if w := m.width - lipgloss.Width(footerLeft) - lipgloss.Width(footerRight); w > 0 {
		footerPad = lipgloss.PlaceHorizontal(w, lipgloss.Center, " ")
	}
	footer := footerStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, footerLeft, footerPad, footerRight))

	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), footer)
}

// countFinal updates summary counters when an item first reaches a final
// state. Must be called with mu held.
func (m *Model) countFinal(status analyzer.Status, message string) {
	switch status {
	case analyzer.StatusPassed:
		m.summary.passed++
		if message == "fixed" {
			m.summary.fixed++
		}
	case analyzer.StatusFailed:
		m.summary.failed++
	case analyzer.StatusFixError:
		m.summary.fixErrors++
	case analyzer.StatusSkipped:
		m.summary.skipped++
	}
}

func isFinalStatus(status analyzer.Status) bool {
	switch status {
	case analyzer.StatusPassed, analyzer.StatusFailed, analyzer.StatusFixError, analyzer.StatusSkipped:
		return true
	}
	return false
}

// debounceListUpdate coalesces rapid item changes into one list re-sync.
// Must be called with mu held.
func (m *Model) debounceListUpdate() tea.Cmd {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.NewTimer(listUpdateDebounce)
	timer := m.debounceTimer
	return func() tea.Msg {
		<-timer.C
		return updateListMsg{}
	}
}

func (i fileItem) FilterValue() string { return i.path }
func (i fileItem) Title() string       { return i.path }

func (i fileItem) Description() string {
	var style lipgloss.Style
	icon := " "
	switch i.status {
	case analyzer.StatusPassed:
		style = statusStylePassed
		icon = "✓"
	case analyzer.StatusFailed:
		style = statusStyleFailed
		icon = "✗"
	case analyzer.StatusFixError:
		style = statusStyleFailed
		icon = "!"
	case analyzer.StatusSkipped:
		style = statusStyleSkipped
		icon = "S"
	case analyzer.StatusProcessing:
		style = statusStyleProcessing
		icon = "…"
	default:
		style = statusStylePending
	}

	details := i.message
	if details == "" && i.duration > 0 {
		details = formatDuration(i.duration)
	}
	return fmt.Sprintf("%s %s", style.Render(fmt.Sprintf("[%s]", icon)), details)
}

func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

const (
	colorHeaderFg = lipgloss.Color("252")
	colorHeaderBg = lipgloss.Color("62")

	colorFooterFg = lipgloss.Color("252")
	colorFooterBg = lipgloss.Color("56")

	colorNormalFg     = lipgloss.Color("250")
	colorNormalDescFg = lipgloss.Color("244")

	colorSelectedFg     = lipgloss.Color("255")
	colorSelectedBg     = lipgloss.Color("56")
	colorSelectedDescFg = lipgloss.Color("248")

	colorPassed     = lipgloss.Color("40")
	colorFailed     = lipgloss.Color("196")
	colorSkipped    = lipgloss.Color("214")
	colorPending    = lipgloss.Color("244")
	colorProcessing = lipgloss.Color("205")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorHeaderFg).Background(colorHeaderBg).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorFooterFg).Background(colorFooterBg).Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().Foreground(colorProcessing)

	statusStylePassed     = lipgloss.NewStyle().Foreground(colorPassed)
	statusStyleFailed     = lipgloss.NewStyle().Foreground(colorFailed)
	statusStyleSkipped    = lipgloss.NewStyle().Foreground(colorSkipped)
	statusStylePending    = lipgloss.NewStyle().Foreground(colorPending)
	statusStyleProcessing = lipgloss.NewStyle().Foreground(colorProcessing)
)
