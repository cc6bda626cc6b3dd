// Package cli implements the applist command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/applist/internal/config"
	"github.com/rshade/applist/internal/feed"
	"github.com/rshade/applist/internal/fetch"
	"github.com/rshade/applist/internal/logging"
	"github.com/rshade/applist/internal/metrics"
	"github.com/rshade/applist/internal/tui"
)

// Persistent flag names.
const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagBaseURL     = "base-url"
	flagPageSize    = "page-size"
	flagMetricsAddr = "metrics-addr"
)

// annotationInteractive marks commands that take over the terminal.
const annotationInteractive = "applist/interactive"

// app carries state set up by the root command for its subcommands.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	logResult *logging.LogPathResult
	metrics   *metrics.Metrics

	stopMetrics context.CancelFunc
	metricsDone chan error

	// detectMode is swapped in tests.
	detectMode func() tui.OutputMode
}

// NewRootCmd creates the root command for the applist CLI. Without a
// subcommand it opens the browser on a terminal and prints a table otherwise.
func NewRootCmd(ver string) *cobra.Command {
	return newRootCmd(ver, &app{detectMode: tui.DetectOutputMode})
}

func newRootCmd(ver string, a *app) *cobra.Command {
	listParams := newListOptions()

	cmd := &cobra.Command{
		Use:           "applist",
		Short:         "Browse paginated loan applications",
		Long:          "applist fetches loan applications page by page and accumulates them into one growing list.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.cleanup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.interactive(cmd) {
				return runBrowse(cmd, a)
			}
			return runList(cmd, a, listParams)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String(flagConfig, "", "config file (default $APPLIST_HOME/config.yaml or ~/.applist/config.yaml)")
	pf.Bool(flagDebug, false, "enable debug logging")
	pf.String(flagBaseURL, "", "application listing endpoint (overrides config)")
	pf.Int(flagPageSize, 0, "records per page (overrides config)")
	pf.String(flagMetricsAddr, "", "serve Prometheus metrics on this address, e.g. :9102")

	listParams.addFlags(cmd)

	cmd.AddCommand(newBrowseCmd(a), newListCmd(a), newConfigCmd(a))
	a.cleanupOnError(cmd)
	return cmd
}

// cleanupOnError wraps every RunE in the tree so a failing command still
// releases what setup acquired. Cobra skips PersistentPostRunE on error.
func (a *app) cleanupOnError(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			err := run(c, args)
			if err != nil {
				if cerr := a.cleanup(c); cerr != nil {
					a.logger.Warn().Ctx(c.Context()).Err(cerr).Msg("cleanup after failure")
				}
			}
			return err
		}
	}
	for _, sub := range cmd.Commands() {
		a.cleanupOnError(sub)
	}
}

const rootCmdExample = `  # Browse interactively, pressing m to load more
  applist browse

  # Print the first three pages as a table
  applist list --pages 3

  # Fetch ten pages concurrently and emit NDJSON
  applist list --pages 10 --parallel --output ndjson

  # Point at another backend
  applist --base-url https://loans.example.com/api/applications list

  # Write the default configuration file
  applist config init`

// interactive reports whether cmd should run the full-screen browser.
func (a *app) interactive(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationInteractive] == "true" {
		return true
	}
	return !cmd.HasParent() && a.detectMode() == tui.OutputInteractive
}

// setup loads configuration, applies flag overrides, and starts logging and
// the optional metrics server.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	var err error
	if cmd.Annotations[annotationSkipConfig] != "true" {
		path, _ := cmd.Flags().GetString(flagConfig)
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed(flagBaseURL) {
		cfg.API.BaseURL, _ = flags.GetString(flagBaseURL)
	}
	if flags.Changed(flagPageSize) {
		cfg.API.PageSize, _ = flags.GetInt(flagPageSize)
	}
	if flags.Changed(flagMetricsAddr) {
		cfg.Metrics.Addr, _ = flags.GetString(flagMetricsAddr)
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	result := setupLogging(cmd, cfg.Logging, a.interactive(cmd))
	a.logResult = &result
	a.logger = logging.ComponentLogger(result.Logger, "cli")

	a.metrics = metrics.New()
	if cfg.Metrics.Addr != "" {
		if err = a.startMetrics(cmd, cfg.Metrics.Addr); err != nil {
			_ = a.cleanup(cmd)
			return err
		}
	}
	return nil
}

func (a *app) startMetrics(cmd *cobra.Command, addr string) error {
	ln, err := metrics.Listen(addr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	a.stopMetrics = cancel
	a.metricsDone = make(chan error, 1)
	go func() {
		a.metricsDone <- a.metrics.Serve(ctx, ln)
	}()
	a.logger.Info().Ctx(cmd.Context()).Str("addr", ln.Addr().String()).Msg("serving metrics")
	return nil
}

// cleanup stops the metrics server and closes the log file. It is safe to
// call more than once.
func (a *app) cleanup(cmd *cobra.Command) error {
	if a.stopMetrics != nil {
		a.stopMetrics()
		if err := <-a.metricsDone; err != nil {
			a.logger.Warn().Ctx(cmd.Context()).Err(err).Msg("metrics server shutdown")
		}
		a.stopMetrics = nil
	}
	a.logger.Debug().Ctx(cmd.Context()).Str("command", cmd.Name()).Msg("command finished")
	if a.logResult != nil {
		err := a.logResult.Close()
		a.logResult = nil
		return err
	}
	return nil
}

// newController builds a fetch client and controller from the effective config.
func (a *app) newController(opts feedOptions) (*feed.Controller, *fetch.Client, error) {
	client, err := fetch.NewClient(a.cfg.API.BaseURL, fetch.WithObserver(a.metrics))
	if err != nil {
		return nil, nil, fmt.Errorf("creating fetch client: %w", err)
	}

	feedOpts := []feed.Option{feed.WithPageSize(a.cfg.API.PageSize)}
	if opts.dedup {
		feedOpts = append(feedOpts, feed.WithAppendPolicy(feed.AppendUniqueByID))
	}
	if opts.stopOnEmpty {
		feedOpts = append(feedOpts, feed.WithStopPolicy(feed.StopOnEmptyPage))
	}
	return feed.New(client, feedOpts...), client, nil
}

// feedOptions are the policy switches resolved from config and flags.
type feedOptions struct {
	dedup       bool
	stopOnEmpty bool
}

// resolveFeedOptions starts from config and applies --dedup/--stop-on-empty
// when they were set on cmd.
func (a *app) resolveFeedOptions(cmd *cobra.Command) feedOptions {
	opts := feedOptions{dedup: a.cfg.Feed.Dedup, stopOnEmpty: a.cfg.Feed.StopOnEmpty}
	if f := cmd.Flags().Lookup(flagDedup); f != nil && f.Changed {
		opts.dedup, _ = cmd.Flags().GetBool(flagDedup)
	}
	if f := cmd.Flags().Lookup(flagStopOnEmpty); f != nil && f.Changed {
		opts.stopOnEmpty, _ = cmd.Flags().GetBool(flagStopOnEmpty)
	}
	return opts
}

// newConfigCmd creates the config command group.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(a))
	return cmd
}
