package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/datawhisper/datawhisper-cli/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", transcript.SessionID)

	if transcript.Filename != "" {
		_, _ = fmt.Fprintf(w, "**File:** %s  \n", transcript.Filename)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d (newest first)\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range transcript.Messages {
		timestamp := ""
		if !msg.CreatedAt.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.CreatedAt.UTC().Format(time.RFC3339))
		}

		content := escapeMarkdown(msg.Content)

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, content)
		writeArtifacts(w, msg.Artifacts)

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func writeArtifacts(w io.Writer, artifacts []internal.Artifact) {
	for _, a := range artifacts {
		switch a.Kind {
		case internal.ArtifactKindChart:
			chart, err := a.LineChart()
			if err != nil {
				_, _ = fmt.Fprintf(w, "_%v (not rendered)_\n\n", err)
				continue
			}
			writeChartTable(w, chart)
		default:
			kind := string(a.Kind)
			if kind == "" {
				kind = "unknown"
			}
			_, _ = fmt.Fprintf(w, "_Unsupported %s artifact (not rendered)_\n\n", kind)
		}
	}
}

func writeChartTable(w io.Writer, chart *internal.ChartSpec) {
	headers := []string{escapeCell(chart.X.Name)}
	for _, s := range chart.Series {
		headers = append(headers, escapeCell(s.Name))
	}
	_, _ = fmt.Fprintf(w, "Line chart by %s:\n\n", chart.X.Name)
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(headers, " | "))
	_, _ = fmt.Fprintf(w, "|%s\n", strings.Repeat(" --- |", len(headers)))
	for _, row := range internal.ChartRows(chart) {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	_, _ = fmt.Fprintln(w)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
