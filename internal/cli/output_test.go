package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/hyperjump/starmap/internal/render"
)

func init() {
	color.NoColor = true
}

func sampleSummary() *RenderSummary {
	return &RenderSummary{
		Output:    "map.png",
		Dataset:   "points.json",
		Width:     800,
		Height:    600,
		Zoom:      2,
		Stats:     render.FrameStats{Points: 4, Drawn: 3, Culled: 1, Edges: 2, Labels: 1},
		Highlight: true,
		Matches:   2,
	}
}

func TestWriteRenderSummary_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRenderSummary(&buf, sampleSummary(), OutputJSON); err != nil {
		t.Fatalf("WriteRenderSummary(json): %v", err)
	}
	var decoded RenderSummary
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Output != "map.png" || decoded.Stats.Drawn != 3 || decoded.Matches != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteRenderSummary_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRenderSummary(&buf, sampleSummary(), OutputText); err != nil {
		t.Fatalf("WriteRenderSummary(text): %v", err)
	}
	out := buf.String()
	for _, want := range []string{"rendered map.png", "800x600", "3 drawn, 1 culled, 0 skipped", "matches    2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRenderSummary_noMatches(t *testing.T) {
	s := sampleSummary()
	s.Matches = 0
	var buf bytes.Buffer
	_ = WriteRenderSummary(&buf, s, OutputText)
	if !strings.Contains(buf.String(), "no matches") {
		t.Errorf("expected no-matches notice:\n%s", buf.String())
	}

	s.Highlight = false
	buf.Reset()
	_ = WriteRenderSummary(&buf, s, OutputText)
	if strings.Contains(buf.String(), "matches") {
		t.Errorf("unexpected match line without highlight:\n%s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
