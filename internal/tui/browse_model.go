package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/applist/internal/display"
	"github.com/rshade/applist/internal/feed"
	"github.com/rshade/applist/internal/fetch"
	listview "github.com/rshade/applist/internal/tui/list"
)

const (
	// Title is the heading shown above the cards.
	Title = "Application Portal"

	// LoadMoreLabel is the text of the always-present load trigger.
	LoadMoreLabel = "Load More"

	// cardHeight is six field lines plus the top and bottom border.
	cardHeight = 8

	// chromeHeight covers title, status, button and help lines with spacing.
	chromeHeight = 8

	labelWidth = 18
)

// PageLoadedMsg reports a settled trigger. The cards are re-read from the
// controller when it arrives, so out-of-order arrivals never show a stale list.
type PageLoadedMsg struct {
	Outcome feed.Outcome
	Initial bool
}

// BrowseModel is the Bubble Tea model for the application browser.
type BrowseModel struct {
	ctx  context.Context
	ctrl *feed.Controller

	state   ViewState
	list    listview.Model[display.Row]
	loading *LoadingState
	keys    keyMap
	help    help.Model

	pending int
	status  string
	failed  bool

	// initializing is set until the first page settles. Load More presses
	// during that window are counted in deferred and issued afterwards.
	initializing bool
	deferred     int

	width  int
	height int
}

// NewBrowseModel creates a browser backed by ctrl. Init triggers the first page.
func NewBrowseModel(ctx context.Context, ctrl *feed.Controller) *BrowseModel {
	return &BrowseModel{
		ctx:     ctx,
		ctrl:    ctrl,
		state:   ViewStateLoading,
		list:    listview.New(defaultHeight-chromeHeight, defaultWidth, cardHeight, renderCard),
		loading: NewLoadingState(),
		keys:    defaultKeyMap(),
		help:    help.New(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Init starts the spinner and the initial load.
func (m *BrowseModel) Init() tea.Cmd {
	m.pending++
	m.initializing = true
	return tea.Batch(m.loading.Init(), m.loadCmd(true))
}

// loadCmd runs one trigger on a Bubble Tea goroutine. The page index is
// fixed when the command runs, not when the key is pressed.
func (m *BrowseModel) loadCmd(initial bool) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		var out feed.Outcome
		if initial {
			out = ctrl.Initialize(ctx)
		} else {
			out = ctrl.LoadNext(ctx)
		}
		return PageLoadedMsg{Outcome: out, Initial: initial}
	}
}

// Update handles messages and updates the model state.
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.list = m.list.SetSize(msg.Width, max(msg.Height-chromeHeight, cardHeight))
		return m, nil

	case PageLoadedMsg:
		return m.handlePageLoaded(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.pending > 0 {
		return m, m.loading.Update(msg)
	}
	return m, nil
}

func (m *BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.state = ViewStateQuitting
		return m, tea.Quit

	case key.Matches(msg, m.keys.LoadMore):
		if m.ctrl.Exhausted() {
			m.status = "No more applications to load."
			m.failed = false
			return m, nil
		}
		m.pending++
		if m.initializing {
			m.deferred++
			return m, nil
		}
		m.loading.SetMessage(fmt.Sprintf("Loading page %d...", m.ctrl.Cursor()+1))
		if m.pending == 1 {
			return m, tea.Batch(m.loading.Init(), m.loadCmd(false))
		}
		return m, m.loadCmd(false)
	}

	m.list = m.list.Update(msg)
	return m, nil
}

func (m *BrowseModel) handlePageLoaded(msg PageLoadedMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	if m.state == ViewStateLoading {
		m.state = ViewStateList
	}

	out := msg.Outcome
	switch {
	case errors.Is(out.Err, feed.ErrReset):
		// Superseded by a later Initialize; the list is already current.
	case errors.Is(out.Err, feed.ErrExhausted):
		m.status = "No more applications to load."
		m.failed = false
	case out.Err != nil:
		m.status = failureStatus(out)
		m.failed = true
	case out.Received == 0:
		m.status = "No further applications returned."
		m.failed = false
	default:
		m.status = ""
		m.failed = false
	}

	m.list = m.list.SetItems(display.FormatRecords(m.ctrl.Items()))

	if msg.Initial && m.initializing {
		m.initializing = false
		return m, m.flushDeferred()
	}
	return m, nil
}

// flushDeferred issues the Load More presses held back during the initial load.
func (m *BrowseModel) flushDeferred() tea.Cmd {
	n := m.deferred
	m.deferred = 0
	switch n {
	case 0:
		return nil
	case 1:
		return m.loadCmd(false)
	}
	cmds := make([]tea.Cmd, n)
	for i := range cmds {
		cmds[i] = m.loadCmd(false)
	}
	return tea.Batch(cmds...)
}

// failureStatus describes a failed trigger without exposing internals.
func failureStatus(out feed.Outcome) string {
	var fe *fetch.FetchError
	if !errors.As(out.Err, &fe) {
		return "Could not load more applications."
	}
	switch fe.Kind {
	case fetch.ResponseFailure:
		return fmt.Sprintf("Could not load page %d: server responded %d.", out.Page+1, fe.StatusCode)
	case fetch.MalformedPayload:
		return fmt.Sprintf("Could not load page %d: unexpected response.", out.Page+1)
	case fetch.TransportFailure:
		return fmt.Sprintf("Could not load page %d: server unreachable.", out.Page+1)
	default:
		return fmt.Sprintf("Could not load page %d.", out.Page+1)
	}
}

// View renders the browser.
func (m *BrowseModel) View() string {
	if m.state == ViewStateQuitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(Title))
	b.WriteString("  ")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d loaded", m.list.Len())))
	b.WriteString("\n\n")

	if m.list.Len() == 0 && m.state == ViewStateLoading {
		b.WriteString(RenderLoading(m.loading))
		b.WriteString("\n")
	} else {
		if m.list.Len() == 0 {
			b.WriteString(SubtleStyle.Render("No applications yet."))
		} else {
			b.WriteString(m.list.View())
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ButtonStyle.Render(LoadMoreLabel))
	switch {
	case m.pending > 0:
		b.WriteString("  ")
		b.WriteString(RenderLoading(m.loading))
	case m.status != "" && m.failed:
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render(m.status))
	case m.status != "":
		b.WriteString("  ")
		b.WriteString(SubtleStyle.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// renderCard draws one record as six labelled lines in a bordered box.
func renderCard(row display.Row, selected bool) string {
	lines := make([]string, 0, len(display.Labels()))
	for _, f := range row.Fields() {
		label := LabelStyle.Width(labelWidth).Render(f.Label)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, ValueStyle.Render(f.Value)))
	}
	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// State returns the current view state.
func (m *BrowseModel) State() ViewState {
	return m.state
}

// Pending returns the number of triggers still in flight.
func (m *BrowseModel) Pending() int {
	return m.pending
}

// Status returns the status line text.
func (m *BrowseModel) Status() string {
	return m.status
}

// Cards returns the number of cards in the list.
func (m *BrowseModel) Cards() int {
	return m.list.Len()
}
