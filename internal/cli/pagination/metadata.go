package pagination

import (
	"errors"
	"sort"

	"github.com/rshade/applist/internal/feed"
)

// LoadSummary describes a completed run of page loads.
type LoadSummary struct {
	PageSize      int   `json:"page_size"`
	Triggers      int   `json:"triggers"`
	PagesLoaded   int   `json:"pages_loaded"`
	PagesFailed   int   `json:"pages_failed"`
	FailedPages   []int `json:"failed_pages,omitempty"`
	Skipped       int   `json:"skipped_triggers,omitempty"`
	RecordsLoaded int   `json:"records_loaded"`
	NextPage      int   `json:"next_page"`
	Exhausted     bool  `json:"exhausted"`
}

// NewLoadSummary tallies outcomes. nextPage and exhausted come from the
// controller after every trigger has settled.
func NewLoadSummary(pageSize int, outcomes []feed.Outcome, records, nextPage int, exhausted bool) LoadSummary {
	s := LoadSummary{
		PageSize:      pageSize,
		Triggers:      len(outcomes),
		RecordsLoaded: records,
		NextPage:      nextPage,
		Exhausted:     exhausted,
	}
	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			s.PagesLoaded++
		case errors.Is(o.Err, feed.ErrExhausted):
			s.Skipped++
		default:
			s.PagesFailed++
			s.FailedPages = append(s.FailedPages, o.Page)
		}
	}
	sort.Ints(s.FailedPages)
	return s
}

// HasFailures reports whether any trigger failed to load its page.
func (s LoadSummary) HasFailures() bool {
	return s.PagesFailed > 0
}
