// Package listview provides a scrolling list of multi-line cards for Bubble Tea
// views whose contents grow while the view is open.
//
// Only the cards that fit the viewport are rendered. Appending never moves the
// selection, so a user reading card 3 stays on card 3 when page 2 arrives.
package listview
