package pagination

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Defaults and validation limits.
const (
	DefaultPages    = 1
	MinPages        = 1
	MaxPages        = 1000
	DefaultPageSize = 5
	MinPageSize     = 1
	MaxPageSize     = 1000
)

// Flag names.
const (
	FlagPages    = "pages"
	FlagParallel = "parallel"
)

// Validation errors.
var (
	ErrInvalidPages    = errors.New("pages must be between 1 and 1000")
	ErrInvalidPageSize = errors.New("page-size must be between 1 and 1000")
)

// LoadParams describes how many load triggers a non-interactive run issues.
// The first trigger is the initial load; the rest are "load more" triggers.
type LoadParams struct {
	// Pages is the total number of triggers, including the initial one.
	Pages int

	// PageSize is the number of records requested per page.
	PageSize int

	// Parallel fires all triggers after the first concurrently.
	Parallel bool
}

// NewLoadParams returns params with default values.
func NewLoadParams() *LoadParams {
	return &LoadParams{
		Pages:    DefaultPages,
		PageSize: DefaultPageSize,
	}
}

// Validate checks bounds.
func (p LoadParams) Validate() error {
	if p.Pages < MinPages || p.Pages > MaxPages {
		return fmt.Errorf("%w: got %d", ErrInvalidPages, p.Pages)
	}
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, p.PageSize)
	}
	return nil
}

// MoreTriggers is the number of triggers after the initial load.
func (p LoadParams) MoreTriggers() int {
	return max(p.Pages-1, 0)
}

// AddFlags binds --pages and --parallel on cmd.
func (p *LoadParams) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Pages, FlagPages, DefaultPages,
		"number of pages to load, counting the initial page")
	cmd.Flags().BoolVar(&p.Parallel, FlagParallel, false,
		"issue the load-more triggers concurrently")
}
