package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bulletLineRe    = regexp.MustCompile(`^\s*[-*]\s`)
	boldSpanRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	tableSepRe      = regexp.MustCompile(`^\|[\s\-:|]+\|$`)
	blankRunsRe     = regexp.MustCompile(`\n{3,}`)
	unwantedHeadRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^##\s+sources?\s*(checked|referenced|cited|used)`),
		regexp.MustCompile(`(?im)^##\s+brand\s+mention`),
		regexp.MustCompile(`(?im)^##\s+references?\b`),
	}
)

// PostProcess fixes formatting issues in AI-generated markdown that break on
// downstream renderers: bold labels inside bullet points, GFM pipe tables
// (converted to HTML tables), and unwanted trailing sections the prompt
// forbids but models still sometimes emit.
func PostProcess(content string) string {
	result := stripBoldFromBullets(content)
	result = tablesToHTML(result)
	result = removeUnwantedSections(result)
	return result
}

// stripBoldFromBullets removes **bold** formatting inside bullet lines:
// "- **Label:** text" becomes "- Label: text". Standalone bold paragraphs
// (e.g. "**Typical advantages:**") are left untouched.
func stripBoldFromBullets(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if bulletLineRe.MatchString(line) {
			lines[i] = boldSpanRe.ReplaceAllString(line, "$1")
		}
	}
	return strings.Join(lines, "\n")
}

// tablesToHTML converts markdown pipe tables to HTML <table> markup so they
// render on sites whose markdown renderer lacks GFM table support. The
// Notion mapper understands the HTML form as well.
func tablesToHTML(content string) string {
	lines := strings.Split(content, "\n")
	var out []string

	i := 0
	for i < len(lines) {
		line := lines[i]

		if strings.HasPrefix(strings.TrimSpace(line), "|") &&
			i+1 < len(lines) &&
			tableSepRe.MatchString(strings.TrimSpace(lines[i+1])) {
			html, next := renderTable(lines, i)
			out = append(out, html)
			i = next
			continue
		}

		out = append(out, line)
		i++
	}

	return strings.Join(out, "\n")
}

func renderTable(lines []string, start int) (html string, end int) {
	header := splitPipeRow(lines[start])

	i := start + 1
	if i < len(lines) && tableSepRe.MatchString(strings.TrimSpace(lines[i])) {
		i++
	}

	var rows [][]string
	for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
		if tableSepRe.MatchString(strings.TrimSpace(lines[i])) {
			i++
			continue
		}
		rows = append(rows, splitPipeRow(lines[i]))
		i++
	}

	var b strings.Builder
	b.WriteString("<table>\n<thead><tr>")
	for _, cell := range header {
		fmt.Fprintf(&b, "<th>%s</th>", escapeHTML(cell))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<td>%s</td>", escapeHTML(cell))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")

	return b.String(), i
}

func splitPipeRow(line string) []string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")

	cells := strings.Split(trimmed, "|")
	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

// removeUnwantedSections strips "Sources Checked" / "Brand Mention" style
// sections from the heading to the next "## " heading or end of content.
func removeUnwantedSections(content string) string {
	result := content
	for _, headRe := range unwantedHeadRes {
		for {
			loc := headRe.FindStringIndex(result)
			if loc == nil {
				break
			}

			rest := result[loc[0]:]
			// Find the next H2 after the unwanted heading line.
			next := strings.Index(rest[1:], "\n## ")
			if next == -1 {
				result = result[:loc[0]]
			} else {
				result = result[:loc[0]] + rest[next+2:]
			}
		}
	}

	result = blankRunsRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func escapeHTML(text string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(text)
}
