package internal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// MissingPoint is printed for a null chart value
const MissingPoint = "—"

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// previewColumns caps how many columns a preview table shows
const previewColumns = 8

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...)
}

// RenderSession renders the active session header and its profile
func RenderSession(s Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Session:"), s.SessionID)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Upload: "), s.UploadID)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("File:   "), s.Filename)
	if s.Profile != nil {
		b.WriteString("\n")
		b.WriteString(RenderProfile(s.Profile))
	}
	return b.String()
}

// RenderProfile renders shape, per-column types and missingness, and the
// preview rows
func RenderProfile(p *Profile) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("%d rows × %d columns", p.RowCount, p.ColumnCount)))
	b.WriteString("\n")

	if len(p.ColumnNames) > 0 {
		cols := newTable("Column", "Type", "Missing")
		for _, name := range p.ColumnNames {
			typ, ok := p.ColumnType(name)
			if !ok {
				typ = "?"
			}
			missing := "?"
			if rate, ok := p.Missing(name); ok {
				missing = strconv.FormatFloat(rate*100, 'f', 1, 64) + "%"
			}
			cols.Row(name, typ, missing)
		}
		b.WriteString(cols.String())
		b.WriteString("\n")
	}

	if len(p.PreviewRows) > 0 {
		headers := previewHeaders(p)
		preview := newTable(headers...)
		for _, row := range p.PreviewRows {
			cells := make([]string, len(headers))
			for i, h := range headers {
				cells[i] = FormatScalar(row[h])
			}
			preview.Row(cells...)
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("Preview (%d rows)", len(p.PreviewRows))))
		b.WriteString("\n")
		b.WriteString(preview.String())
		b.WriteString("\n")
	}
	return b.String()
}

func previewHeaders(p *Profile) []string {
	headers := p.ColumnNames
	if len(headers) == 0 {
		seen := map[string]bool{}
		for _, row := range p.PreviewRows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					headers = append(headers, k)
				}
			}
		}
		sort.Strings(headers)
	}
	if len(headers) > previewColumns {
		headers = headers[:previewColumns]
	}
	return headers
}

// FormatScalar prints a preview cell value
func FormatScalar(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// FormatPoint prints one chart value; nil is a gap, never zero
func FormatPoint(v *float64) string {
	if v == nil {
		return MissingPoint
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ChartRows lays a chart out as rows of [x, series1, series2, ...]
func ChartRows(c *ChartSpec) [][]string {
	rows := make([][]string, len(c.X.Values))
	for i, x := range c.X.Values {
		row := make([]string, 0, len(c.Series)+1)
		row = append(row, x)
		for _, s := range c.Series {
			row = append(row, FormatPoint(s.Values[i]))
		}
		rows[i] = row
	}
	return rows
}

// RenderChart renders a validated line chart as a table
func RenderChart(c *ChartSpec) string {
	headers := []string{c.X.Name}
	names := make([]string, 0, len(c.Series))
	for _, s := range c.Series {
		headers = append(headers, s.Name)
		names = append(names, s.Name)
	}
	t := newTable(headers...).Rows(ChartRows(c)...)

	title := fmt.Sprintf("📈 Line chart: %s by %s", strings.Join(names, ", "), c.X.Name)
	return headingStyle.Render(title) + "\n" + t.String() + "\n"
}

// RenderArtifacts renders every supported artifact and a one-line note for
// each artifact that was skipped.
func RenderArtifacts(artifacts []Artifact) string {
	var b strings.Builder
	for _, a := range artifacts {
		switch a.Kind {
		case ArtifactKindChart:
			chart, err := a.LineChart()
			if err != nil {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("(%v, not rendered)", err)))
				b.WriteString("\n")
				continue
			}
			b.WriteString(RenderChart(chart))
		default:
			kind := string(a.Kind)
			if kind == "" {
				kind = "unknown"
			}
			LogDebug("Skipping artifact of kind %q", kind)
			b.WriteString(mutedStyle.Render(fmt.Sprintf("(unsupported %s artifact, not rendered)", kind)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderReply renders the assistant's answer to a chat turn
func RenderReply(r *ChatReply) string {
	var b strings.Builder
	b.WriteString(assistantStyle.Render("assistant"))
	b.WriteString("\n")
	b.WriteString(r.Reply)
	b.WriteString("\n")
	if len(r.Artifacts) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderArtifacts(r.Artifacts))
	}
	return b.String()
}

// RenderMessage renders one history item
func RenderMessage(m ChatMessage) string {
	var b strings.Builder
	role := string(m.Role)
	switch m.Role {
	case RoleUser:
		role = userStyle.Render(role)
	case RoleAssistant:
		role = assistantStyle.Render(role)
	}
	b.WriteString(role)
	if !m.CreatedAt.IsZero() {
		b.WriteString(" ")
		b.WriteString(labelStyle.Render(m.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	}
	b.WriteString("\n")
	b.WriteString(m.Content)
	b.WriteString("\n")
	if len(m.Artifacts) > 0 {
		b.WriteString(RenderArtifacts(m.Artifacts))
	}
	return b.String()
}
