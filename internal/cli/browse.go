package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/applist/internal/tui"
)

// ErrNotInteractive is returned when browse runs without a terminal.
var ErrNotInteractive = errors.New("browse needs an interactive terminal; use 'applist list' instead")

// newBrowseCmd creates the interactive browse command.
func newBrowseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse applications interactively",
		Long: `Opens a full-screen list of application cards. The first page loads on
start; press m or enter to load the next page. Logs are discarded unless
logging.file is configured.`,
		Annotations: map[string]string{annotationInteractive: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.detectMode() != tui.OutputInteractive {
				return ErrNotInteractive
			}
			return runBrowse(cmd, a)
		},
	}
	cmd.Flags().Bool(flagDedup, false, "skip records whose ID was already loaded")
	cmd.Flags().Bool(flagStopOnEmpty, false, "disable loading after an empty page")
	return cmd
}

func runBrowse(cmd *cobra.Command, a *app) error {
	ctrl, _, err := a.newController(a.resolveFeedOptions(cmd))
	if err != nil {
		return err
	}

	model := tui.NewBrowseModel(cmd.Context(), ctrl)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithInput(cmd.InOrStdin()),
	)
	if _, err = p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
