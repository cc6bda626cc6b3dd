package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/applist/internal/application"
	"github.com/rshade/applist/internal/display"
	"github.com/rshade/applist/internal/feed"
	"github.com/rshade/applist/internal/fetch"
)

type stubFetcher struct {
	mu    sync.Mutex
	pages map[int]fetch.Result
	calls []int
}

func (s *stubFetcher) FetchPage(_ context.Context, page, _ int) fetch.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	if r, ok := s.pages[page]; ok {
		return r
	}
	return fetch.Result{Page: page, Records: []application.Record{}}
}

func record(id, company string) application.Record {
	return application.Record{
		ID:          application.ID(id),
		Company:     company,
		FirstName:   "John",
		LastName:    "Doe",
		Email:       "john.doe@techcorp.com",
		LoanAmount:  decimal.NewFromInt(50000),
		DateCreated: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		ExpiryDate:  time.Date(2024, 12, 15, 23, 59, 59, 0, time.UTC),
	}
}

func newTestModel(pages map[int]fetch.Result, opts ...feed.Option) (*BrowseModel, *stubFetcher) {
	f := &stubFetcher{pages: pages}
	return NewBrowseModel(context.Background(), feed.New(f, opts...)), f
}

func loadMore() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")}
}

// settle runs a trigger synchronously and feeds its message back.
func settle(t *testing.T, m *BrowseModel, initial bool) PageLoadedMsg {
	t.Helper()
	msg, ok := m.loadCmd(initial)().(PageLoadedMsg)
	require.True(t, ok)
	m.Update(msg)
	return msg
}

func TestBrowseModel_InitLoadsFirstPage(t *testing.T) {
	m, f := newTestModel(map[int]fetch.Result{
		0: {Page: 0, Records: []application.Record{record("1", "Tech Corp"), record("2", "Innovation Ltd")}},
	})

	cmd := m.Init()
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, ViewStateLoading, m.State())
	assert.Contains(t, m.View(), "Loading applications...")

	msg := settle(t, m, true)

	assert.True(t, msg.Initial)
	assert.Equal(t, []int{0}, f.calls)
	assert.Equal(t, ViewStateList, m.State())
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 2, m.Cards())

	view := m.View()
	assert.Contains(t, view, Title)
	assert.Contains(t, view, "Tech Corp")
	assert.Contains(t, view, "£50,000")
	assert.Contains(t, view, "15-01-2024")
	assert.Contains(t, view, LoadMoreLabel)
}

func TestBrowseModel_LoadMoreAppends(t *testing.T) {
	m, f := newTestModel(map[int]fetch.Result{
		0: {Page: 0, Records: []application.Record{record("1", "Tech Corp")}},
		1: {Page: 1, Records: []application.Record{record("2", "Innovation Ltd")}},
	})
	m.Init()
	settle(t, m, true)

	_, cmd := m.Update(loadMore())
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.Pending())

	settle(t, m, false)

	assert.Equal(t, []int{0, 1}, f.calls)
	assert.Equal(t, 2, m.Cards())
	assert.Empty(t, m.Status())
}

func TestBrowseModel_EnterAlsoLoadsMore(t *testing.T) {
	m, _ := newTestModel(nil)
	m.Init()
	settle(t, m, true)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.Pending())
}

func TestBrowseModel_FailureKeepsCardsAndTrigger(t *testing.T) {
	m, _ := newTestModel(map[int]fetch.Result{
		0: {Page: 0, Records: []application.Record{record("1", "Tech Corp")}},
		1: {Page: 1, Err: &fetch.FetchError{Kind: fetch.ResponseFailure, Page: 1, StatusCode: 503}},
	})
	m.Init()
	settle(t, m, true)
	m.Update(loadMore())

	settle(t, m, false)

	assert.Equal(t, 1, m.Cards())
	assert.Equal(t, "Could not load page 2: server responded 503.", m.Status())
	view := m.View()
	assert.Contains(t, view, LoadMoreLabel)
	assert.Contains(t, view, "server responded 503")
	assert.Equal(t, 1, m.ctrl.Cursor(), "the failed page is requested again")
}

func TestBrowseModel_EmptyFirstPage(t *testing.T) {
	m, _ := newTestModel(nil)
	m.Init()

	settle(t, m, true)

	assert.Equal(t, 0, m.Cards())
	view := m.View()
	assert.Contains(t, view, "No applications yet.")
	assert.Contains(t, view, LoadMoreLabel)
}

func TestBrowseModel_StopOnEmptyPage(t *testing.T) {
	m, f := newTestModel(nil, feed.WithStopPolicy(feed.StopOnEmptyPage))
	m.Init()
	settle(t, m, true)

	_, cmd := m.Update(loadMore())

	assert.Nil(t, cmd)
	assert.Equal(t, "No more applications to load.", m.Status())
	assert.Equal(t, []int{0}, f.calls)
}

func TestBrowseModel_OverlappingTriggers(t *testing.T) {
	m, f := newTestModel(map[int]fetch.Result{
		1: {Page: 1, Records: []application.Record{record("a", "A")}},
		2: {Page: 2, Records: []application.Record{record("b", "B")}},
	})
	m.Init()
	settle(t, m, true)

	m.Update(loadMore())
	m.Update(loadMore())
	assert.Equal(t, 2, m.Pending())

	settle(t, m, false)
	settle(t, m, false)

	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, []int{0, 1, 2}, f.calls)
	assert.Equal(t, 2, m.Cards())
}

func TestBrowseModel_LoadMoreDuringInitialLoadIsDeferred(t *testing.T) {
	m, f := newTestModel(map[int]fetch.Result{
		0: {Page: 0, Records: []application.Record{record("1", "Tech Corp")}},
		1: {Page: 1, Records: []application.Record{record("2", "Innovation Ltd")}},
	})
	m.Init()

	_, cmd := m.Update(loadMore())
	assert.Nil(t, cmd, "no page is reserved before the list is initialized")
	assert.Equal(t, 2, m.Pending())

	initial, ok := m.loadCmd(true)().(PageLoadedMsg)
	require.True(t, ok)
	_, cmd = m.Update(initial)
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.Pending())

	next, ok := cmd().(PageLoadedMsg)
	require.True(t, ok)
	m.Update(next)

	assert.Equal(t, []int{0, 1}, f.calls)
	assert.Equal(t, 1, next.Outcome.Page)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 2, m.Cards())
	assert.Empty(t, m.Status())
}

func TestBrowseModel_SeveralDeferredTriggers(t *testing.T) {
	m, _ := newTestModel(nil)
	m.Init()
	m.Update(loadMore())
	m.Update(loadMore())

	_, cmd := m.Update(PageLoadedMsg{Outcome: feed.Outcome{Page: 0}, Initial: true})

	require.NotNil(t, cmd)
	_, isBatch := cmd().(tea.BatchMsg)
	assert.True(t, isBatch)
	assert.Equal(t, 2, m.Pending())
}

func TestBrowseModel_ResetOutcomeIsQuiet(t *testing.T) {
	m, _ := newTestModel(map[int]fetch.Result{
		0: {Page: 0, Records: []application.Record{record("1", "Tech Corp")}},
	})
	m.Init()
	settle(t, m, true)
	m.Update(loadMore())

	m.Update(PageLoadedMsg{Outcome: feed.Outcome{Page: 1, Err: feed.ErrReset}})

	assert.Empty(t, m.Status())
	assert.NotContains(t, m.View(), "Could not load")
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 1, m.Cards())
}

func TestBrowseModel_Quit(t *testing.T) {
	m, _ := newTestModel(nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, ViewStateQuitting, m.State())
	assert.Empty(t, m.View())
}

func TestBrowseModel_WindowResize(t *testing.T) {
	m, _ := newTestModel(nil)

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, m.width)
	assert.Equal(t, (40-chromeHeight)/cardHeight, m.list.PageItems())
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		out  feed.Outcome
		want string
	}{
		{
			name: "transport",
			out:  feed.Outcome{Page: 0, Err: &fetch.FetchError{Kind: fetch.TransportFailure}},
			want: "Could not load page 1: server unreachable.",
		},
		{
			name: "malformed",
			out:  feed.Outcome{Page: 4, Err: &fetch.FetchError{Kind: fetch.MalformedPayload}},
			want: "Could not load page 5: unexpected response.",
		},
		{
			name: "invalid",
			out:  feed.Outcome{Page: 2, Err: &fetch.FetchError{Kind: fetch.InvalidRequest}},
			want: "Could not load page 3.",
		},
		{
			name: "untyped",
			out:  feed.Outcome{Page: 2, Err: assert.AnError},
			want: "Could not load more applications.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureStatus(tt.out))
		})
	}
}

func TestRenderCard_ShowsAllLabels(t *testing.T) {
	card := renderCard(display.FormatRecord(record("1", "Tech Corp")), false)

	for _, label := range display.Labels() {
		assert.Contains(t, card, label)
	}
	assert.Contains(t, card, "John Doe")
	assert.Contains(t, card, "15-12-2024")
}

func TestDetectOutputMode(t *testing.T) {
	tests := []struct {
		name  string
		isTTY bool
		env   map[string]string
		want  OutputMode
	}{
		{name: "pipe", isTTY: false, want: OutputPlain},
		{name: "terminal", isTTY: true, want: OutputInteractive},
		{name: "no color", isTTY: true, env: map[string]string{"NO_COLOR": "1"}, want: OutputPlain},
		{name: "ci", isTTY: true, env: map[string]string{"CI": "true"}, want: OutputStyled},
		{name: "dumb term", isTTY: true, env: map[string]string{"TERM": "dumb"}, want: OutputStyled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			assert.Equal(t, tt.want, detectOutputMode(tt.isTTY, getenv))
		})
	}

	assert.Equal(t, "interactive", OutputInteractive.String())
	assert.Equal(t, "unknown", OutputMode(7).String())
}
