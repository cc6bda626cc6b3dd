package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one item. selected reports whether it holds the cursor.
type RenderFunc[T any] func(item T, selected bool) string

// Model is a scrolling list of fixed-height cards.
type Model[T any] struct {
	items      []T
	renderFunc RenderFunc[T]

	selected int
	// offset is the index of the first visible item.
	offset int

	height     int
	width      int
	itemHeight int
}

// New creates an empty list. itemHeight is the number of terminal rows one
// rendered card occupies, including any separator; values below 1 mean 1.
func New[T any](height, width, itemHeight int, renderFunc RenderFunc[T]) Model[T] {
	if itemHeight < 1 {
		itemHeight = 1
	}
	return Model[T]{
		renderFunc: renderFunc,
		height:     height,
		width:      width,
		itemHeight: itemHeight,
	}
}

// Append adds items to the end of the list. The selection does not move.
func (m Model[T]) Append(items ...T) Model[T] {
	next := make([]T, 0, len(m.items)+len(items))
	next = append(next, m.items...)
	m.items = append(next, items...)
	m.clamp()
	return m
}

// SetItems replaces the list contents and resets the selection when it no
// longer fits.
func (m Model[T]) SetItems(items []T) Model[T] {
	m.items = append([]T(nil), items...)
	m.clamp()
	return m
}

// SetSize changes the viewport dimensions.
func (m Model[T]) SetSize(width, height int) Model[T] {
	m.width = width
	m.height = height
	m.clamp()
	return m
}

// Update handles navigation keys and window resizes.
func (m Model[T]) Update(msg tea.Msg) Model[T] {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height)
	}
	return m
}

//nolint:exhaustive // Only navigation keys are handled.
func (m Model[T]) handleKey(msg tea.KeyMsg) Model[T] {
	if len(m.items) == 0 {
		return m
	}

	switch msg.Type {
	case tea.KeyUp:
		m.selected--
	case tea.KeyDown:
		m.selected++
	case tea.KeyPgUp:
		m.selected -= m.PageItems()
	case tea.KeyPgDown:
		m.selected += m.PageItems()
	case tea.KeyHome:
		m.selected = 0
	case tea.KeyEnd:
		m.selected = len(m.items) - 1
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "j":
			m.selected++
		case "k":
			m.selected--
		}
	default:
	}

	m.clamp()
	return m
}

// clamp keeps the selection in range and scrolls the window to contain it.
func (m *Model[T]) clamp() {
	if len(m.items) == 0 {
		m.selected = 0
		m.offset = 0
		return
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}

	page := m.PageItems()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+page {
		m.offset = m.selected - page + 1
	}
	if maxOffset := len(m.items) - page; m.offset > maxOffset {
		m.offset = max(maxOffset, 0)
	}
}

// PageItems is the number of whole cards the viewport can show, at least 1.
func (m Model[T]) PageItems() int {
	return max(m.height/m.itemHeight, 1)
}

// View renders the visible cards separated by newlines.
func (m Model[T]) View() string {
	if len(m.items) == 0 || m.renderFunc == nil {
		return ""
	}

	from, to := m.VisibleRange()
	var sb strings.Builder
	for i := from; i < to; i++ {
		if i > from {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderFunc(m.items[i], i == m.selected))
	}
	return sb.String()
}

// VisibleRange returns the half-open range of item indices in the viewport.
func (m Model[T]) VisibleRange() (int, int) {
	return m.offset, min(m.offset+m.PageItems(), len(m.items))
}

// Len returns the number of items.
func (m Model[T]) Len() int {
	return len(m.items)
}

// Selected returns the selected index.
func (m Model[T]) Selected() int {
	return m.selected
}

// SelectedItem returns the selected item, or false when the list is empty.
func (m Model[T]) SelectedItem() (T, bool) {
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	return m.items[m.selected], true
}

// AtEnd reports whether the last item is visible.
func (m Model[T]) AtEnd() bool {
	_, to := m.VisibleRange()
	return to == len(m.items)
}
