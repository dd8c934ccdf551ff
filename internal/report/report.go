// Package report renders selection statistics as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/voxsel/internal/selection"
	"github.com/hpungsan/voxsel/internal/voxel"
)

// Format is a report output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown"/"md" and "html". Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("invalid report format %q: want markdown or html", s)
}

// Input is what a report describes.
type Input struct {
	Title       string
	Stats       selection.Stats
	Workspace   voxel.Box
	StoreVoxels int
	GeneratedAt time.Time
}

// Markdown renders in as a Markdown document.
func Markdown(in Input) string {
	var b strings.Builder
	title := in.Title
	if title == "" {
		title = "Selection"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "_Generated %s_\n\n", formatTime(in.GeneratedAt))
	}

	st := in.Stats
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Voxels | %s |\n", formatCount(st.Count))
	if in.StoreVoxels > 0 {
		fmt.Fprintf(&b, "| Share of store | %.1f%% |\n", 100*float64(st.Count)/float64(in.StoreVoxels))
	}
	fmt.Fprintf(&b, "| Volume | %s m³ |\n", formatFloat(st.TotalVolume))
	if st.Count > 0 {
		fmt.Fprintf(&b, "| Finest resolution | %s |\n", st.FinestRes)
		fmt.Fprintf(&b, "| Coarsest resolution | %s |\n", st.CoarsestRes)
	}
	if st.HasBounds {
		fmt.Fprintf(&b, "| Bounds min | %s |\n", formatVec(st.Bounds.Min.X, st.Bounds.Min.Y, st.Bounds.Min.Z))
		fmt.Fprintf(&b, "| Bounds max | %s |\n", formatVec(st.Bounds.Max.X, st.Bounds.Max.Y, st.Bounds.Max.Z))
		fmt.Fprintf(&b, "| Center | %s |\n", formatVec(st.Center.X, st.Center.Y, st.Center.Z))
	}
	if in.Workspace != (voxel.Box{}) {
		fmt.Fprintf(&b, "| Workspace | %s to %s |\n",
			formatVec(in.Workspace.Min.X, in.Workspace.Min.Y, in.Workspace.Min.Z),
			formatVec(in.Workspace.Max.X, in.Workspace.Max.Y, in.Workspace.Max.Z))
	}

	if len(st.CountByRes) > 0 {
		b.WriteString("\n## By resolution\n\n")
		b.WriteString("| Resolution | Voxels | Volume (m³) |\n|---|---:|---:|\n")
		res := make([]voxel.Resolution, 0, len(st.CountByRes))
		for r := range st.CountByRes {
			res = append(res, r)
		}
		slices.Sort(res)
		for _, r := range res {
			n := st.CountByRes[r]
			edge := r.Meters()
			fmt.Fprintf(&b, "| %s | %s | %s |\n", r, formatCount(n), formatFloat(float64(n)*edge*edge*edge))
		}
	} else {
		b.WriteString("\nThe selection is empty.\n")
	}
	return b.String()
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.75rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders in as a standalone HTML page via its Markdown form.
func HTML(in Input) (string, error) {
	body, err := markdownToHTML(Markdown(in))
	if err != nil {
		return "", err
	}
	title := in.Title
	if title == "" {
		title = "Selection"
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, body}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render renders in using f.
func Render(in Input, f Format) (string, error) {
	if f == FormatHTML {
		return HTML(in)
	}
	return Markdown(in), nil
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// markdownToHTML converts markdown text to HTML using goldmark.
func markdownToHTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// formatTime formats a time as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func formatVec(x, y, z float64) string {
	return fmt.Sprintf("(%s, %s, %s)", formatFloat(x), formatFloat(y), formatFloat(z))
}

func formatFloat(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// formatCount formats an integer with comma thousands separators.
func formatCount(n int) string {
	if n < 0 {
		return "-" + formatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
