// Package formatter renders backend data for the terminal and writes generated projects to disk.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/autodev/internal/models"
	"github.com/desertthunder/autodev/internal/shared"
	"gopkg.in/yaml.v3"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count with binary units and at most two decimals, e.g. "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)

	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDate renders t relative to now for the last week and as a calendar date beyond that.
func FormatDate(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// timestampLayouts covers RFC 3339 and the naive datetimes the backend serializes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a backend timestamp. Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", shared.ErrInvalidInput, s)
}

// relative formats a backend timestamp with [FormatDate], falling back to the raw value.
func relative(s string, now time.Time) string {
	if s == "" {
		return "-"
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return s
	}
	return FormatDate(t, now)
}

// WriteProjects writes projects as "table", "csv", "json" or "yaml".
func WriteProjects(w io.Writer, projects []models.Project, format string, now time.Time) error {
	switch format {
	case "json":
		return writeJSON(w, projects)
	case "yaml":
		return writeYAML(w, projects)
	case "csv":
		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{p.ID, p.Name, p.Description, p.CreatedAt})
		}
		return writeCSV(w, []string{"ID", "Name", "Description", "Created"}, rows)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tCREATED")
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, truncate(p.Description, 40), relative(p.CreatedAt, now))
		}
		return tw.Flush()
	}
}

// WriteJobs writes backend job summaries as "table", "csv", "json" or "yaml".
func WriteJobs(w io.Writer, jobs []models.JobSummary, format string, now time.Time) error {
	switch format {
	case "json":
		return writeJSON(w, jobs)
	case "yaml":
		return writeYAML(w, jobs)
	case "csv":
		rows := make([][]string, 0, len(jobs))
		for _, j := range jobs {
			rows = append(rows, []string{j.ID, string(j.Status), j.CreatedAt})
		}
		return writeCSV(w, []string{"ID", "Status", "Created"}, rows)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tCREATED")
		for _, j := range jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", j.ID, j.Status, relative(j.CreatedAt, now))
		}
		return tw.Flush()
	}
}

// WriteTemplates writes starter templates as "table", "csv", "json" or "yaml".
func WriteTemplates(w io.Writer, templates []models.Template, format string) error {
	switch format {
	case "json":
		return writeJSON(w, templates)
	case "yaml":
		return writeYAML(w, templates)
	case "csv":
		rows := make([][]string, 0, len(templates))
		for _, t := range templates {
			rows = append(rows, []string{t.ID, t.Name, t.Category, strings.Join(t.Tech, " ")})
		}
		return writeCSV(w, []string{"ID", "Name", "Category", "Tech"}, rows)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tTECH")
		for _, t := range templates {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, truncate(strings.Join(t.Tech, ", "), 40))
		}
		return tw.Flush()
	}
}

// WriteHistory writes local job records as a table.
func WriteHistory(w io.Writer, records []*models.JobRecord, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tJOB\tPROJECT\tSTATUS\tFILES\tUPDATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			r.Sequence(), r.RemoteID(), r.ProjectID(), r.Status(), len(r.InputFiles()), FormatDate(r.UpdatedAt(), now))
	}
	return tw.Flush()
}

// SpecMarkdown renders a spec preview as a Markdown summary.
func SpecMarkdown(preview *models.SpecPreview) []byte {
	var buf bytes.Buffer

	name := preview.AppName
	if name == "" {
		name = "Untitled"
	}
	fmt.Fprintf(&buf, "# %s\n\n", name)
	if preview.Description != "" {
		fmt.Fprintf(&buf, "%s\n\n", preview.Description)
	}

	buf.WriteString("| Entities | Endpoints | Pages |\n")
	buf.WriteString("|---------:|----------:|------:|\n")
	fmt.Fprintf(&buf, "| %d | %d | %d |\n", preview.Entities, preview.Endpoints, preview.Pages)

	if len(preview.FullSpec) > 0 {
		if pretty, err := shared.MarshalJSON(preview.FullSpec, true); err == nil {
			buf.WriteString("\n```json\n")
			buf.Write(pretty)
			buf.WriteString("\n```\n")
		}
	}
	return buf.Bytes()
}

// WriteJobFiles writes a generated project's files under dir and returns the written paths in sorted order.
//
// Paths that are absolute or escape dir are rejected before anything is written.
func WriteJobFiles(dir string, files map[string]string) ([]string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return nil, fmt.Errorf("%w: unsafe path %q", shared.ErrInvalidInput, name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
