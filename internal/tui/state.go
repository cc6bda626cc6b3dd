package tui

// ViewState is the current phase of the browse view.
type ViewState int

const (
	// ViewStateLoading is shown until the first page settles.
	ViewStateLoading ViewState = iota
	// ViewStateList shows the accumulated cards.
	ViewStateList
	// ViewStateQuitting is set once the user quits.
	ViewStateQuitting
)

// Default dimensions used before the first WindowSizeMsg.
const (
	defaultWidth  = 100
	defaultHeight = 30
)
