// Package pagination holds the CLI-side page loading parameters and the
// summary reported once a run of page loads completes.
//
//   - LoadParams: --pages, --page-size and --parallel parsing and validation
//   - LoadSummary: per-run metadata for table footers and JSON envelopes
package pagination
