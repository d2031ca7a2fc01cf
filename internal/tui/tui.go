// Package tui provides a Bubble Tea terminal user interface for spotidown.
//
// The program's Update loop is the session's event loop: scheduled
// continuations arrive as messages and run inside Update, so the session
// is only ever touched from one goroutine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipTable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/handiism/spotidown/internal/config"
	"github.com/handiism/spotidown/internal/download"
	"github.com/handiism/spotidown/internal/history"
	"github.com/handiism/spotidown/internal/model"
	"github.com/handiism/spotidown/internal/session"
)

const maxLogs = 10

// focus says which pane receives keys.
type focus int

const (
	focusInput focus = iota
	focusList
	focusHistory
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   session.Level
}

// logBuffer is shared by every copy of the Model. It is only written from
// Update, either directly or through session callbacks running there.
type logBuffer struct {
	entries []LogEntry
	verbose bool
}

func (l *logBuffer) add(level session.Level, message string) {
	if level == session.LevelVerbose && !l.verbose {
		return
	}
	l.entries = append(l.entries, LogEntry{Message: message, Level: level})
	if len(l.entries) > maxLogs {
		l.entries = l.entries[len(l.entries)-maxLogs:]
	}
}

func (l *logBuffer) addEvent(e session.Event) {
	l.add(e.Level, e.Message)
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	settings *config.Settings
	sess     *session.Session
	store    *history.Store
	snap     session.Snapshot
	logs     *logBuffer

	focus     focus
	cursor    int
	textInput textinput.Model
	spinner   spinner.Model
	fetchBar  progress.Model
	jobBar    progress.Model
	list      viewport.Model

	width  int
	height int
}

// NewModel creates a TUI model. A session must be attached before the
// program starts.
func NewModel(settings *config.Settings, store *history.Store) Model {
	ti := textinput.New()
	ti.Placeholder = "https://open.spotify.com/album/..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954"))

	fetchBar := progress.New(progress.WithDefaultGradient())
	fetchBar.Width = 50
	jobBar := progress.New(progress.WithSolidFill("#1DB954"))
	jobBar.Width = 50

	list := viewport.New(0, 0)
	list.KeyMap = viewport.KeyMap{}

	return Model{
		settings:  settings,
		store:     store,
		logs:      &logBuffer{},
		textInput: ti,
		spinner:   sp,
		fetchBar:  fetchBar,
		jobBar:    jobBar,
		list:      list,
	}
}

func (m *Model) attach(s *session.Session) {
	m.sess = s
	m.snap = s.Snapshot()
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fetchBar.Width = min(max(msg.Width-20, 20), 80)
		m.jobBar.Width = m.fetchBar.Width

	case callbackMsg:
		msg()

	case saverMsg:
		m.logs.add(saverLevel(msg.Level), msg.Message)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if cmd, quit := m.handleKey(msg); quit {
			return m, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey applies one key press. It reports quit=true when the program
// should exit.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		m.sess.Close()
		return nil, true
	}

	switch m.focus {
	case focusHistory:
		switch key {
		case "h", "esc", "tab":
			m.focus = focusList
		case "c":
			if err := m.store.Clear(); err != nil {
				m.logs.add(session.LevelError, "Could not clear history: "+err.Error())
			} else {
				m.logs.add(session.LevelInfo, "History cleared")
			}
		case "q":
			m.sess.Close()
			return nil, true
		}
		return nil, false

	case focusInput:
		switch key {
		case "esc":
			m.sess.Close()
			return nil, true
		case "enter":
			if strings.TrimSpace(m.textInput.Value()) == "" {
				return nil, false
			}
			m.cursor = 0
			// Validation failures are already reported as events.
			_ = m.sess.Fetch(m.textInput.Value())
			return nil, false
		case "tab":
			m.setFocus(focusList)
			return nil, false
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return cmd, false
	}

	items := m.items()
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "enter", "d":
		m.downloadSelected(items)
	case "z":
		m.startArchive()
	case "r":
		m.sess.Reset()
		m.cursor = 0
		m.textInput.SetValue("")
		m.setFocus(focusInput)
	case "h":
		m.focus = focusHistory
	case "v":
		m.logs.verbose = !m.logs.verbose
	case "tab":
		m.setFocus(focusInput)
	case "q", "esc":
		m.sess.Close()
		return nil, true
	}
	return nil, false
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.textInput.Focus()
	} else {
		m.textInput.Blur()
	}
}

func (m *Model) downloadSelected(items []model.Track) {
	if m.cursor >= len(items) {
		return
	}
	track := items[m.cursor]
	if m.snap.ItemStatus(track.ID) == model.ItemInProgress {
		return
	}
	if err := m.sess.DownloadItem(track.ID); err != nil {
		m.logs.add(session.LevelError, err.Error())
	}
}

func (m *Model) startArchive() {
	if m.snap.Result == nil || !m.snap.Result.IsCollection() {
		m.logs.add(session.LevelWarning, "Only albums and playlists can be archived")
		return
	}
	started, err := m.sess.StartArchive()
	if err != nil {
		m.logs.add(session.LevelError, err.Error())
	} else if !started {
		m.logs.add(session.LevelWarning, "An archive job is already running")
	}
}

// refresh copies the session state and keeps the list view in sync.
func (m *Model) refresh() {
	if m.sess == nil {
		return
	}
	prev := m.snap.Status
	m.snap = m.sess.Snapshot()

	items := m.items()
	if m.cursor >= len(items) {
		m.cursor = max(len(items)-1, 0)
	}
	if prev == session.StatusProcessing && m.snap.Status == session.StatusSuccess && m.focus == focusInput {
		m.setFocus(focusList)
	}

	m.list.Width = max(m.width-4, 20)
	m.list.Height = m.listHeight()
	m.list.SetContent(renderItems(items, m.snap, m.cursor, m.list.Width, m.focus == focusList))
	if m.cursor < m.list.YOffset {
		m.list.SetYOffset(m.cursor)
	} else if m.cursor >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

func (m Model) listHeight() int {
	if m.height == 0 {
		return 10
	}
	return max(m.height-24, 3)
}

func (m Model) items() []model.Track {
	if m.snap.Result == nil {
		return nil
	}
	return m.snap.Result.Items()
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♫ Spotidown"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download music from Spotify links"))
	b.WriteString("\n\n")

	if m.focus == focusHistory {
		b.WriteString(m.viewHistory())
	} else {
		b.WriteString(m.viewInput())
		b.WriteString(m.viewStatus())
		if m.snap.Result != nil {
			b.WriteString(m.viewResult())
		}
	}

	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Spotify link:"))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	return b.String()
}

func (m Model) viewStatus() string {
	var b strings.Builder

	switch m.snap.Status {
	case session.StatusProcessing:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render(m.snap.Message))
		b.WriteString("\n")
		b.WriteString(m.fetchBar.ViewAs(float64(m.snap.Progress) / 100))
		b.WriteString("\n")
		if m.snap.TakingLong {
			b.WriteString(warningStyle.Render("The server is taking longer than usual..."))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	case session.StatusError:
		b.WriteString(errorStyle.Render("✗ " + m.snap.Message))
		b.WriteString("\n\n")
	}

	return b.String()
}

func (m Model) viewResult() string {
	var b strings.Builder
	r := m.snap.Result

	header := fmt.Sprintf("%s · %s", r.Type(), r.Name())
	if r.Artist() != "" {
		header += " · " + r.Artist()
	}
	if r.IsCollection() {
		header += fmt.Sprintf(" · %d tracks", r.Len())
	}
	b.WriteString(resultStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.list.View()))
	b.WriteString("\n")

	if r.IsCollection() {
		b.WriteString(m.viewArchive())
	}
	return b.String()
}

func (m Model) viewArchive() string {
	var b strings.Builder
	a := m.snap.Archive

	switch a.State {
	case session.ArchiveIdle:
		return ""
	case session.ArchiveSubmitting, session.ArchivePolling:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(infoStyle.Render(a.Job.Message))
	case session.ArchiveCompleted:
		b.WriteString(successStyle.Render("✓ " + a.Job.Message))
	case session.ArchiveError:
		b.WriteString(errorStyle.Render("✗ " + a.Job.Message))
	}
	b.WriteString("\n")
	if a.State != session.ArchiveError {
		b.WriteString(m.jobBar.ViewAs(float64(a.Job.Percent) / 100))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewHistory() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Recent downloads"))
	b.WriteString("\n")

	entries := m.store.List()
	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("  Nothing downloaded yet"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(renderHistory(entries, max(m.width-30, 20)))
	b.WriteString("\n")
	return b.String()
}

// renderItems draws one row per track. Rows are truncated to width cells.
func renderItems(items []model.Track, snap session.Snapshot, cursor, width int, active bool) string {
	rows := make([]string, 0, len(items))
	for i, t := range items {
		icon := statusIcon(snap.ItemStatus(t.ID))
		name := runewidth.Truncate(t.DisplayName(), max(width-6, 1), "…")
		row := fmt.Sprintf("%s %s", icon, name)
		if i == cursor && active {
			row = cursorStyle.Render("› ") + row
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func statusIcon(s model.ItemStatus) string {
	switch s {
	case model.ItemInProgress:
		return infoStyle.Render("↓")
	case model.ItemSucceeded:
		return successStyle.Render("✓")
	case model.ItemFailed:
		return errorStyle.Render("✗")
	default:
		return dimStyle.Render("○")
	}
}

// renderHistory draws the history entries as a table.
func renderHistory(entries []history.Entry, nameWidth int) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			runewidth.Truncate(e.Name, nameWidth, "…"),
			runewidth.Truncate(e.Artist, 24, "…"),
			humanize.Time(e.Timestamp),
		})
	}

	return lipTable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Name", "Artist", "When").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lipTable.HeaderRow {
				return subtitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(rows...).
		Render()
}

func (m Model) renderLogs() string {
	if len(m.logs.entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, log := range m.logs.entries {
		var style lipgloss.Style
		prefix := "  "
		switch log.Level {
		case session.LevelSuccess:
			style = successStyle
			prefix = "✓ "
		case session.LevelError:
			style = errorStyle
			prefix = "✗ "
		case session.LevelWarning:
			style = warningStyle
			prefix = "⚠ "
		case session.LevelVerbose:
			style = dimStyle
			prefix = "  "
		default:
			style = infoStyle
			prefix = "• "
		}
		b.WriteString(style.Render(prefix + log.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) getHelpText() string {
	switch m.focus {
	case focusHistory:
		return "c: clear history • h/esc: back • q: quit"
	case focusList:
		verbose := "off"
		if m.logs.verbose {
			verbose = "on"
		}
		help := "↑/↓: select • d: download track • r: new link • h: history • v: verbose (" + verbose + ") • tab: edit link • q: quit"
		if m.snap.Result != nil && m.snap.Result.IsCollection() {
			help = "z: download all as zip • " + help
		}
		return help
	default:
		return "enter: fetch • tab: track list • esc: quit"
	}
}

func saverLevel(l download.ProgressLevel) session.Level {
	switch l {
	case download.LevelVerbose:
		return session.LevelVerbose
	case download.LevelWarning:
		return session.LevelWarning
	case download.LevelError:
		return session.LevelError
	case download.LevelSuccess:
		return session.LevelSuccess
	default:
		return session.LevelInfo
	}
}
