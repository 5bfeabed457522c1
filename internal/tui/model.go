// Package tui is the terminal front end: a bubbletea model that drives a
// table through its router. The header cursor publishes activations on the
// header region; scrolling near the end publishes scroll events.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mesh-intelligence/tablekit/internal/event"
	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/internal/view"
)

// DefaultThreshold is the scroll threshold in rows.
const DefaultThreshold = 3

// settledMsg reports a finished table request.
type settledMsg struct {
	trigger table.Trigger
	outcome table.Outcome
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the title line.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithThreshold sets how many rows before the end a scroll loads the next
// page.
func WithThreshold(rows int) Option {
	return func(m *Model) { m.threshold = rows }
}

// Model is the bubbletea model for one table.
type Model struct {
	ctx       context.Context
	table     *table.Table
	router    *table.Router
	scroll    *event.Feed[table.ScrollEvent]
	settled   chan settledMsg
	done      chan struct{}
	keys      keyMap
	spinner   spinner.Model
	styles    styles
	title     string
	threshold int

	cursor int
	offset int
	width  int
	height int
	status string
	closed bool
}

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	selected lipgloss.Style
	cell     lipgloss.Style
	status   lipgloss.Style
	help     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Bold(true).PaddingRight(2),
		selected: lipgloss.NewStyle().Bold(true).Reverse(true).PaddingRight(2),
		cell:     lipgloss.NewStyle().PaddingRight(2),
		status:   lipgloss.NewStyle().Faint(true),
		help:     lipgloss.NewStyle().Faint(true),
	}
}

// New builds a model over t and attaches a router to it. Call Close when
// the program exits; it disposes the router and the table.
func New(ctx context.Context, t *table.Table, opts ...Option) *Model {
	m := &Model{
		ctx:       ctx,
		table:     t,
		scroll:    &event.Feed[table.ScrollEvent]{},
		settled:   make(chan settledMsg, 16),
		done:      make(chan struct{}),
		keys:      defaultKeyMap(),
		styles:    defaultStyles(),
		threshold: DefaultThreshold,
		height:    20,
		width:     80,
	}
	for _, o := range opts {
		o(m)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m.spinner = sp

	m.router = table.NewRouter(ctx, t,
		table.WithScrollFeed(m.scroll),
		table.WithScrollThreshold(m.threshold),
		table.WithOutcomeHandler(m.forward),
	)
	return m
}

func (m *Model) forward(tr table.Trigger, o table.Outcome) {
	select {
	case m.settled <- settledMsg{trigger: tr, outcome: o}:
	case <-m.done:
	}
}

func (m *Model) waitForSettled() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.settled:
			return msg
		case <-m.done:
			return nil
		}
	}
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return settledMsg{trigger: table.TriggerPage, outcome: m.table.Load(m.ctx)}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForSettled(), m.spinner.Tick)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = max(msg.Height-5, 1)
		return m, nil

	case settledMsg:
		m.status = fmt.Sprintf("%s %s", msg.trigger, msg.outcome)
		return m, m.waitForSettled()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	columns := m.table.Schema().Columns()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.cursor = min(m.cursor+1, len(columns)-1)
	case key.Matches(msg, m.keys.Sort):
		if cell := m.table.HeaderCell(columns[m.cursor].ID); cell != nil {
			m.table.Activate(cell)
			m.offset = 0
		}
	case key.Matches(msg, m.keys.Up):
		m.offset = max(m.offset-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.PgDown):
		m.scrollBy(m.height)
	}
	return m, nil
}

// scrollBy moves the viewport and reports the new position to the router.
func (m *Model) scrollBy(n int) {
	total := len(m.table.Rows())
	m.offset = max(min(m.offset+n, total-m.height), 0)
	m.scroll.Publish(table.ScrollEvent{
		Offset:         m.offset,
		ViewportHeight: m.height,
		ContentHeight:  total,
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var (
		headers []string
		body    [][]string
	)
	m.table.ReadView(func(v *view.View) {
		headers = v.HeaderTitles()
		body = v.BodyText()
	})

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range body {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.title.Render(m.title) + "\n")
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		style := m.styles.header
		if i == m.cursor {
			style = m.styles.selected
		}
		cells[i] = style.Width(widths[i] + 2).Render(h)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "\n")

	end := min(m.offset+m.height, len(body))
	for _, row := range body[min(m.offset, end):end] {
		line := make([]string, len(row))
		for i, c := range row {
			line[i] = m.styles.cell.Width(widths[i] + 2).Render(c)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, line...) + "\n")
	}

	b.WriteString(m.styles.status.Render(m.statusLine(len(body))) + "\n")
	b.WriteString(m.helpLine())
	return b.String()
}

func (m *Model) statusLine(rows int) string {
	sort := m.table.SortState()
	page := m.table.PageState()
	parts := []string{fmt.Sprintf("%d rows", rows), fmt.Sprintf("%d pages", page.LoadedPages)}
	if sort.IsSorted() {
		parts = append(parts, fmt.Sprintf("sort %s %s", sort.ColumnID, sort.Direction))
	}
	if m.table.Exhausted() {
		parts = append(parts, "end")
	}
	if m.table.InFlight() {
		parts = append(parts, m.spinner.View()+" loading")
	} else if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " · ")
}

func (m *Model) helpLine() string {
	var parts []string
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.help.Render(strings.Join(parts, "  "))
}

// Close stops forwarding outcomes and disposes the router and table.
// Idempotent.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
	m.router.Dispose()
}

// Run runs the model full-screen on in/out until the user quits.
func Run(ctx context.Context, t *table.Table, in io.Reader, out io.Writer, opts ...Option) error {
	m := New(ctx, t, opts...)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
