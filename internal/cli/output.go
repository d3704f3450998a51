// Package cli formats command output for starmap.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hyperjump/starmap/internal/render"
)

// OutputFormat is the format for command summaries.
type OutputFormat string

const (
	// OutputText is coloured human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// Brand styles the product name and output paths.
var Brand = color.New(color.FgHiCyan, color.Bold)

var (
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
)

// ParseFormat accepts "text", "json" or "" (text).
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// RenderSummary describes one headless frame.
type RenderSummary struct {
	Output  string            `json:"output"`
	Dataset string            `json:"dataset"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Zoom    float64           `json:"zoom"`
	Stats   render.FrameStats `json:"stats"`
	// Highlight is false when neither a query nor a similarity file was given.
	Highlight bool `json:"highlight"`
	Matches   int  `json:"matches"`
}

// WriteRenderSummary writes s to w in the given format.
func WriteRenderSummary(w io.Writer, s *RenderSummary, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	Done(w, "rendered "+Brand.Sprint(s.Output))
	Field(w, "dataset", s.Dataset)
	Field(w, "size", fmt.Sprintf("%dx%d", s.Width, s.Height))
	Field(w, "zoom", s.Zoom)
	Field(w, "points", fmt.Sprintf("%d drawn, %d culled, %d skipped", s.Stats.Drawn, s.Stats.Culled, s.Stats.Skipped))
	Field(w, "edges", s.Stats.Edges)
	Field(w, "labels", s.Stats.Labels)
	if s.Highlight {
		if s.Matches > 0 {
			Field(w, "matches", s.Matches)
		} else {
			Notice(w, "no matches")
		}
	}
	return nil
}

// Field prints an aligned "name  value" line.
func Field(w io.Writer, name string, value interface{}) {
	fmt.Fprintf(w, "  %s %v\n", subtle.Sprintf("%-10s", name), value)
}

// Done prints a success line.
func Done(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", good.Sprint("✓"), msg)
}

// Notice prints a warning line.
func Notice(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", warn.Sprint("!"), msg)
}
