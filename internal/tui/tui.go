// Package tui implements the Bubble Tea source viewer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/greenlens/internal/analysis"
	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/source"
)

// detailHeight is the height of the detail panel including its border.
const detailHeight = 9

// RerunFunc produces a fresh annotation set for the viewed document.
type RerunFunc func(ctx context.Context) (*analysis.Results, error)

type analysisDoneMsg struct {
	results *analysis.Results
	err     error
}

// Model is the top-level Bubble Tea model for the viewer.
type Model struct {
	doc     *source.Document
	lines   []source.HighlightedLine
	results *analysis.Results
	rerun   RerunFunc

	// UI state
	width  int
	height int

	cursor int // zero-based document line
	offset int // first visible line

	running bool
	spinner spinner.Model
	status  string
	failed  bool

	help     help.Model
	showHelp bool
}

// New creates a viewer for doc. res may be nil; rerun may be nil to disable
// re-running.
func New(doc *source.Document, res *analysis.Results, rerun RerunFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPurple)

	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = helpKeyStyle
	h.Styles.FullDesc = lipgloss.NewStyle()
	h.Styles.FullSeparator = helpBarStyle

	m := Model{
		help:    h,
		doc:     doc,
		lines:   doc.Highlight(source.DefaultStyle),
		results: res,
		rerun:   rerun,
		spinner: sp,
	}
	if res != nil {
		m.status = res.Summary()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case analysisDoneMsg:
		m.running = false
		if msg.err != nil {
			m.failed = true
			m.status = "analysis failed: " + firstLine(msg.err.Error())
			return m, nil
		}
		m.failed = false
		m.results = msg.results
		m.status = msg.results.Summary()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.lines)-1 {
				m.cursor++
				m.scrollToCursor()
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.scrollToCursor()
			}

		case key.Matches(msg, keys.NextAnnotated):
			m.jumpToNextAnnotated()

		case key.Matches(msg, keys.PrevAnnotated):
			m.jumpToPrevAnnotated()

		case key.Matches(msg, keys.Rerun):
			return m.startRerun()

		case key.Matches(msg, keys.Clear):
			if !m.running {
				m.results = nil
				m.failed = false
				m.status = "annotations cleared"
			}

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

func (m Model) startRerun() (tea.Model, tea.Cmd) {
	if m.rerun == nil {
		m.status = "re-run not available"
		return m, nil
	}
	if m.running {
		return m, nil
	}
	// The previous set is gone as soon as a run starts.
	m.results = nil
	m.running = true
	m.failed = false
	m.status = ""

	rerun := m.rerun
	run := func() tea.Msg {
		res, err := rerun(context.Background())
		return analysisDoneMsg{results: res, err: err}
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

func (m Model) annotation(ln int) *model.LineAnnotation {
	if m.results == nil {
		return nil
	}
	la, ok := m.results.Lines[ln]
	if !ok {
		return nil
	}
	return &la
}

func (m *Model) jumpToNextAnnotated() {
	for i := m.cursor + 1; i < len(m.lines); i++ {
		if m.annotation(i) != nil {
			m.cursor = i
			m.scrollToCursor()
			return
		}
	}
}

func (m *Model) jumpToPrevAnnotated() {
	for i := m.cursor - 1; i >= 0; i-- {
		if m.annotation(i) != nil {
			m.cursor = i
			m.scrollToCursor()
			return
		}
	}
}

// visibleLines is the number of source lines that fit in the source pane.
func (m Model) visibleLines() int {
	// status bar, borders, file header
	return max(m.height-detailHeight-1-2-1, 1)
}

func (m *Model) scrollToCursor() {
	visible := m.visibleLines()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	sourceView := m.renderSourceView(m.width, m.height-detailHeight-1)
	detailView := m.renderDetailView(m.width)
	statusBar := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, sourceView, detailView, statusBar)
}

func (m Model) renderSourceView(width, height int) string {
	innerWidth := width - 4 // borders + padding
	innerHeight := height - 2

	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render(m.doc.Name()))

	end := min(m.offset+m.visibleLines(), len(m.lines))
	for i := m.offset; i < end; i++ {
		b.WriteByte('\n')
		b.WriteString(renderSourceLine(i, m.lines[i], m.annotation(i), innerWidth, i == m.cursor))
	}

	return sourceViewStyle.Width(width - 2).Height(innerHeight).Render(b.String())
}

func (m Model) renderDetailView(width int) string {
	innerHeight := detailHeight - 2
	content := renderDetail(m.annotation(m.cursor), width-4, innerHeight)
	return detailViewStyle.Width(width - 2).Height(innerHeight).Render(content)
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" %s  Line %d/%d", m.doc.Name(), m.cursor+1, len(m.lines))

	var state string
	switch {
	case m.running:
		state = m.spinner.View() + " analyzing…"
	case m.failed:
		state = statusErrorStyle.Render(m.status)
	default:
		state = m.status
	}
	right := state + "  ? help "

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(fileHeaderStyle.Render("greenlens: Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Run starts the viewer.
func Run(doc *source.Document, res *analysis.Results, rerun RerunFunc) error {
	m := New(doc, res, rerun)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
