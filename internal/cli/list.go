package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/applist/internal/cli/pagination"
	"github.com/rshade/applist/internal/config"
	"github.com/rshade/applist/internal/display"
	"github.com/rshade/applist/internal/feed"
	"github.com/rshade/applist/internal/logging"
)

// list flag names.
const (
	flagOutput      = "output"
	flagDedup       = "dedup"
	flagStopOnEmpty = "stop-on-empty"
	flagStrict      = "strict"
)

// ErrPagesFailed is returned under --strict when any page failed to load.
var ErrPagesFailed = errors.New("one or more pages failed to load")

// listOptions holds the list command's flags.
type listOptions struct {
	load        *pagination.LoadParams
	output      string
	dedup       bool
	stopOnEmpty bool
	strict      bool
}

func newListOptions() *listOptions {
	return &listOptions{load: pagination.NewLoadParams()}
}

func (o *listOptions) addFlags(cmd *cobra.Command) {
	o.load.AddFlags(cmd)
	cmd.Flags().StringVarP(&o.output, flagOutput, "o", "", "output format: table, json or ndjson (default from config)")
	cmd.Flags().BoolVar(&o.dedup, flagDedup, false, "skip records whose ID was already loaded")
	cmd.Flags().BoolVar(&o.stopOnEmpty, flagStopOnEmpty, false, "stop issuing triggers after an empty page")
	cmd.Flags().BoolVar(&o.strict, flagStrict, false, "exit non-zero when any page failed to load")
}

// newListCmd creates the non-interactive list command.
func newListCmd(a *app) *cobra.Command {
	opts := newListOptions()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load pages and print the accumulated applications",
		Long: `Issues the initial load and then --pages minus one "load more" triggers,
printing the accumulated list once every trigger has settled. Failed pages
are reported on stderr and leave the list unchanged.`,
		Example: `  # First page as a table
  applist list

  # Five pages fetched concurrently as JSON
  applist list --pages 5 --parallel --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, a, opts)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

// runList drives the controller and renders the result.
func runList(cmd *cobra.Command, a *app, opts *listOptions) error {
	ctx := cmd.Context()
	opts.load.PageSize = a.cfg.API.PageSize
	if err := opts.load.Validate(); err != nil {
		return err
	}

	format := a.cfg.Output.DefaultFormat
	if opts.output != "" {
		format = opts.output
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	ctrl, client, err := a.newController(a.resolveFeedOptions(cmd))
	if err != nil {
		return err
	}
	a.logger.Debug().Ctx(ctx).
		Str("url", client.PageURL(0, opts.load.PageSize)).
		Int("pages", opts.load.Pages).
		Bool("parallel", opts.load.Parallel).
		Msg("loading pages")

	outcomes := loadPages(ctx, ctrl, *opts.load)
	for _, o := range outcomes {
		if o.Err != nil && !errors.Is(o.Err, feed.ErrExhausted) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", o.Err)
		}
	}

	summary := pagination.NewLoadSummary(ctrl.PageSize(), outcomes, ctrl.Len(), ctrl.Cursor(), ctrl.Exhausted())
	rows := display.FormatRecords(ctrl.Items())
	if err = render(cmd.OutOrStdout(), format, rows, summary); err != nil {
		return err
	}

	if opts.strict && summary.HasFailures() {
		return fmt.Errorf("%w: pages %v", ErrPagesFailed, summary.FailedPages)
	}
	return nil
}

// loadPages runs the initial trigger and then the remaining ones either in
// sequence or all at once. Outcomes are returned in settle order.
func loadPages(ctx context.Context, ctrl *feed.Controller, params pagination.LoadParams) []feed.Outcome {
	outcomes := make([]feed.Outcome, 0, params.Pages)
	outcomes = append(outcomes, ctrl.Initialize(ctx))

	more := params.MoreTriggers()
	if !params.Parallel {
		for range more {
			out := ctrl.LoadNext(ctx)
			outcomes = append(outcomes, out)
			if errors.Is(out.Err, feed.ErrExhausted) {
				break
			}
		}
		return outcomes
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for range more {
		g.Go(func() error {
			out := ctrl.LoadNext(gctx)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).Msg("parallel load")
	}
	return outcomes
}

func validateFormat(format string) error {
	switch format {
	case config.FormatTable, config.FormatJSON, config.FormatNDJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or ndjson)", format)
	}
}
