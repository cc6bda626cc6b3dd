package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode is how output should be presented on the current stdout.
type OutputMode int

const (
	// OutputPlain is uncolored text for pipes, files and CI logs.
	OutputPlain OutputMode = iota
	// OutputStyled is colored text on a terminal that cannot host the browser.
	OutputStyled
	// OutputInteractive is a full-screen Bubble Tea program.
	OutputInteractive
)

// String returns the mode name.
func (m OutputMode) String() string {
	switch m {
	case OutputPlain:
		return "plain"
	case OutputStyled:
		return "styled"
	case OutputInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// DetectOutputMode inspects stdout and the environment. NO_COLOR forces plain
// output; CI or TERM=dumb downgrades a terminal to styled.
func DetectOutputMode() OutputMode {
	return detectOutputMode(term.IsTerminal(int(os.Stdout.Fd())), os.Getenv)
}

func detectOutputMode(isTTY bool, getenv func(string) string) OutputMode {
	if !isTTY || getenv("NO_COLOR") != "" {
		return OutputPlain
	}
	if getenv("CI") != "" || getenv("TERM") == "dumb" {
		return OutputStyled
	}
	return OutputInteractive
}
