package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rshade/applist/internal/cli/pagination"
	"github.com/rshade/applist/internal/config"
	"github.com/rshade/applist/internal/display"
)

// tabPadding is the space between table columns.
const tabPadding = 2

// listEnvelope is the JSON document written by --output json.
type listEnvelope struct {
	Applications []display.Row         `json:"applications"`
	Summary      pagination.LoadSummary `json:"summary"`
}

// render writes rows in format. The format must already be validated.
func render(w io.Writer, format string, rows []display.Row, summary pagination.LoadSummary) error {
	switch format {
	case config.FormatJSON:
		return renderJSON(w, rows, summary)
	case config.FormatNDJSON:
		return renderNDJSON(w, rows)
	default:
		return renderTable(w, rows, summary)
	}
}

func renderTable(w io.Writer, rows []display.Row, summary pagination.LoadSummary) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No applications loaded.")
		return renderFooter(w, summary)
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	labels := display.Labels()
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	dashes := make([]string, len(labels))
	for i, l := range labels {
		dashes[i] = strings.Repeat("-", len(l))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fields := row.Fields()
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = f.Value
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return renderFooter(w, summary)
}

func renderFooter(w io.Writer, s pagination.LoadSummary) error {
	_, err := fmt.Fprintf(w, "\n%d applications from %d of %d pages; next page %d",
		s.RecordsLoaded, s.PagesLoaded, s.Triggers, s.NextPage)
	if err != nil {
		return err
	}
	if s.HasFailures() {
		_, _ = fmt.Fprintf(w, "; failed pages %v", s.FailedPages)
	}
	if s.Exhausted {
		_, _ = fmt.Fprint(w, "; no more pages")
	}
	_, err = fmt.Fprintln(w)
	return err
}

func renderJSON(w io.Writer, rows []display.Row, summary pagination.LoadSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listEnvelope{Applications: rows, Summary: summary}); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func renderNDJSON(w io.Writer, rows []display.Row) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encoding ndjson: %w", err)
		}
	}
	return nil
}
