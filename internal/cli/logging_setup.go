package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/applist/internal/config"
	"github.com/rshade/applist/internal/logging"
)

// setupLogging builds the logger from the config section and --debug, then
// stores it and a trace ID on the command context. The browser owns the
// terminal, so unless a log file is configured its logs are discarded.
func setupLogging(cmd *cobra.Command, lc config.LoggingConfig, interactive bool) logging.LogPathResult {
	debug, _ := cmd.Flags().GetBool(flagDebug)
	if debug {
		lc.Level = "debug"
		if !interactive {
			lc.Format = logging.FormatConsole
			lc.File = ""
		}
	}

	var result logging.LogPathResult
	if interactive && lc.File == "" {
		result = logging.LogPathResult{Logger: zerolog.Nop()}
	} else {
		result = logging.NewLoggerWithPath(lc.ToLoggingConfig())
	}

	if !interactive {
		if result.UsingFile {
			logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
		} else if result.FallbackUsed {
			logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
		}
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = result.Logger.WithContext(ctx)
	cmd.SetContext(ctx)

	result.Logger.Info().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")
	return result
}
