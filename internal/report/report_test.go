package report

import (
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/voxsel/internal/selection"
	"github.com/hpungsan/voxsel/internal/voxel"
	"gonum.org/v1/gonum/spatial/r3"
)

func sampleInput() Input {
	s := selection.NewSet(
		voxel.NewID(0, 0, 0, voxel.Size4cm),
		voxel.NewID(4, 0, 0, voxel.Size4cm),
		voxel.NewID(0, 8, 0, voxel.Size8cm),
	)
	return Input{
		Title:       "Walls",
		Stats:       s.Stats(),
		Workspace:   voxel.WorkspaceBounds(r3.Vec{X: 4, Y: 4, Z: 4}),
		StoreVoxels: 12,
		GeneratedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sampleInput())

	for _, want := range []string{
		"# Walls",
		"_Generated 2026-03-01 12:30_",
		"| Voxels | 3 |",
		"| Share of store | 25.0% |",
		"| Finest resolution | 4cm |",
		"| Coarsest resolution | 8cm |",
		"| Bounds max | (0.08, 0.16, 0.08) |",
		"| Workspace | (-2, 0, -2) to (2, 4, 2) |",
		"| 4cm | 2 | 0.0001 |",
		"| 8cm | 1 | 0.0005 |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown() missing %q in:\n%s", want, got)
		}
	}
	if strings.Index(got, "| 4cm |") > strings.Index(got, "| 8cm |") {
		t.Error("resolutions should be listed finest first")
	}
}

func TestMarkdown_Empty(t *testing.T) {
	got := Markdown(Input{Stats: selection.NewSet().Stats()})

	if !strings.HasPrefix(got, "# Selection\n") {
		t.Errorf("default title missing:\n%s", got)
	}
	if !strings.Contains(got, "The selection is empty.") {
		t.Errorf("empty note missing:\n%s", got)
	}
	if strings.Contains(got, "Bounds") {
		t.Error("empty selection should have no bounds")
	}
}

func TestHTML(t *testing.T) {
	got, err := HTML(sampleInput())
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{"<title>Walls</title>", "<h1>Walls</h1>", "<table>", "<td>Voxels</td>"} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML() missing %q", want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"HTML", FormatHTML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200"}
	for in, want := range tests {
		if got := formatCount(in); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", in, got, want)
		}
	}
}
