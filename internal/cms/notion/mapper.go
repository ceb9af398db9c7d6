package notion

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/inkpress/inkpress-api/internal/domain"
)

// Block is a Notion block object. The API's block shapes are too varied to
// type out; the mapper builds them as maps and the client serializes them
// as-is.
type Block map[string]any

// RichText is one Notion rich text segment.
type RichText struct {
	Type        string          `json:"type"`
	Text        RichTextContent `json:"text"`
	Annotations map[string]bool `json:"annotations,omitempty"`
}

// RichTextContent is the text payload of a rich text segment.
type RichTextContent struct {
	Content string        `json:"content"`
	Link    *RichTextLink `json:"link,omitempty"`
}

// RichTextLink is an inline link target.
type RichTextLink struct {
	URL string `json:"url"`
}

var (
	bulletRe      = regexp.MustCompile(`^\s*[-*]\s`)
	numberedRe    = regexp.MustCompile(`^\d+\.\s`)
	hrRe          = regexp.MustCompile(`^[-*_]{3,}$`)
	tableSepRe    = regexp.MustCompile(`^\|[\s\-:|]+\|$`)
	htmlTagRe     = regexp.MustCompile(`^</?(thead|tbody|tr|th|td|table)>`)
	theadRe       = regexp.MustCompile(`(?s)<thead>(.*?)</thead>`)
	tbodyRe       = regexp.MustCompile(`(?s)<tbody>(.*?)</tbody>`)
	thRe          = regexp.MustCompile(`<th>(.*?)</th>`)
	trRe          = regexp.MustCompile(`(?s)<tr>(.*?)</tr>`)
	tdRe          = regexp.MustCompile(`<td>(.*?)</td>`)
	inlineSpanRe  = regexp.MustCompile(`\*\*(.+?)\*\*|\*(.+?)\*|\[([^\]]+)\]\(([^)]+)\)`)
	htmlUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`)
)

// BlogProperties maps a finished article onto the content database's page
// properties. seo may be nil; the cover file is attached only when a URL is
// present.
func BlogProperties(blog *domain.BlogDraft, seo *domain.SEOMetadata, coverImageURL string) map[string]any {
	category := "General"
	if len(blog.Tags) > 0 {
		category = blog.Tags[0]
	}

	tags := make([]map[string]any, 0, len(blog.Tags))
	for _, tag := range blog.Tags {
		tags = append(tags, map[string]any{"name": tag})
	}

	var metaTitle, metaDescription, focusKeyword string
	if seo != nil {
		metaTitle = seo.MetaTitle
		metaDescription = seo.MetaDescription
		focusKeyword = seo.FocusKeyword
	}

	// Property names match the content database schema, spelling of
	// "Catogery" included.
	properties := map[string]any{
		"Title":           titleProp(blog.Title),
		"Slug":            richTextProp(blog.Slug),
		"Excerpt":         richTextProp(blog.Excerpt),
		"Author":          richTextProp(blog.Author),
		"Date":            map[string]any{"date": map[string]any{"start": time.Now().UTC().Format("2006-01-02")}},
		"Catogery":        map[string]any{"select": map[string]any{"name": category}},
		"Tags":            map[string]any{"multi_select": tags},
		"Read Time":       richTextProp(fmt.Sprintf("%d min read", blog.ReadTimeMinutes)),
		"Published":       map[string]any{"checkbox": true},
		"SEO title":       richTextProp(metaTitle),
		"SEO Description": richTextProp(metaDescription),
		"SEO keyword":     richTextProp(focusKeyword),
	}

	if coverImageURL != "" {
		properties["Cover image"] = map[string]any{
			"files": []map[string]any{{
				"type":     "external",
				"name":     "cover-image",
				"external": map[string]any{"url": coverImageURL},
			}},
		}
	}

	return properties
}

func titleProp(content string) map[string]any {
	return map[string]any{"title": []RichText{plainText(content)}}
}

func richTextProp(content string) map[string]any {
	return map[string]any{"rich_text": []RichText{plainText(content)}}
}

func plainText(content string) RichText {
	return RichText{Type: "text", Text: RichTextContent{Content: content}}
}

// MarkdownToBlocks converts article markdown into Notion blocks: headings,
// lists, quotes, dividers, tables (both pipe tables and the HTML tables the
// post-processor emits) and paragraphs with inline bold, italic and link
// formatting.
func MarkdownToBlocks(md string) []Block {
	lines := strings.Split(md, "\n")
	var blocks []Block

	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++

		case strings.HasPrefix(trimmed, "<table"):
			block, next, ok := parseHTMLTable(lines, i)
			if ok {
				blocks = append(blocks, block)
				i = next
			} else {
				i++
			}

		// Inner HTML table tags that ended up on their own lines.
		case htmlTagRe.MatchString(trimmed):
			i++

		case strings.HasPrefix(trimmed, "|") && i+1 < len(lines) && tableSepRe.MatchString(strings.TrimSpace(lines[i+1])):
			block, next := parsePipeTable(lines, i)
			blocks = append(blocks, block)
			i = next

		// Stray separator rows with no table around them.
		case tableSepRe.MatchString(trimmed):
			i++

		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, headingBlock("heading_3", strings.TrimSpace(line[4:])))
			i++

		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, headingBlock("heading_2", strings.TrimSpace(line[3:])))
			i++

		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, headingBlock("heading_1", strings.TrimSpace(line[2:])))
			i++

		case hrRe.MatchString(trimmed):
			blocks = append(blocks, Block{"object": "block", "type": "divider", "divider": map[string]any{}})
			i++

		case bulletRe.MatchString(line) && !strings.HasPrefix(strings.TrimSpace(line), "**"):
			content := bulletRe.ReplaceAllString(line, "")
			blocks = append(blocks, richTextBlock("bulleted_list_item", content))
			i++

		case numberedRe.MatchString(line):
			content := numberedRe.ReplaceAllString(line, "")
			blocks = append(blocks, richTextBlock("numbered_list_item", content))
			i++

		case strings.HasPrefix(line, "> "):
			blocks = append(blocks, richTextBlock("quote", strings.TrimSpace(line[2:])))
			i++

		default:
			blocks = append(blocks, richTextBlock("paragraph", line))
			i++
		}
	}

	return blocks
}

func headingBlock(kind, content string) Block {
	return richTextBlock(kind, content)
}

func richTextBlock(kind, content string) Block {
	return Block{
		"object": "block",
		"type":   kind,
		kind:     map[string]any{"rich_text": ParseInlineFormatting(content)},
	}
}

// parsePipeTable consumes a markdown pipe table starting at lines[start]
// and returns the table block plus the index after the table.
func parsePipeTable(lines []string, start int) (Block, int) {
	header := splitPipeRow(lines[start])
	width := len(header)

	i := start + 1
	if i < len(lines) && tableSepRe.MatchString(strings.TrimSpace(lines[i])) {
		i++
	}

	rows := [][]string{header}
	for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
		if tableSepRe.MatchString(strings.TrimSpace(lines[i])) {
			i++
			continue
		}
		rows = append(rows, padRow(splitPipeRow(lines[i]), width))
		i++
	}

	return tableBlock(width, rows), i
}

// parseHTMLTable consumes an HTML table emitted by the markdown
// post-processor.
func parseHTMLTable(lines []string, start int) (Block, int, bool) {
	var html strings.Builder
	i := start
	for i < len(lines) {
		html.WriteString(lines[i])
		html.WriteString("\n")
		if strings.Contains(strings.TrimSpace(lines[i]), "</table>") {
			i++
			break
		}
		i++
	}

	headerMatch := theadRe.FindStringSubmatch(html.String())
	if headerMatch == nil {
		return nil, 0, false
	}

	var header []string
	for _, m := range thRe.FindAllStringSubmatch(headerMatch[1], -1) {
		header = append(header, htmlUnescaper.Replace(m[1]))
	}
	if len(header) == 0 {
		return nil, 0, false
	}
	width := len(header)

	rows := [][]string{header}
	if bodyMatch := tbodyRe.FindStringSubmatch(html.String()); bodyMatch != nil {
		for _, tr := range trRe.FindAllStringSubmatch(bodyMatch[1], -1) {
			var row []string
			for _, td := range tdRe.FindAllStringSubmatch(tr[1], -1) {
				row = append(row, htmlUnescaper.Replace(td[1]))
			}
			rows = append(rows, padRow(row, width))
		}
	}

	return tableBlock(width, rows), i, true
}

func tableBlock(width int, rows [][]string) Block {
	children := make([]Block, 0, len(rows))
	for _, row := range rows {
		cells := make([][]RichText, 0, len(row))
		for _, cell := range row {
			cells = append(cells, ParseInlineFormatting(cell))
		}
		children = append(children, Block{
			"object":    "block",
			"type":      "table_row",
			"table_row": map[string]any{"cells": cells},
		})
	}

	return Block{
		"object": "block",
		"type":   "table",
		"table": map[string]any{
			"table_width":       width,
			"has_column_header": true,
			"has_row_header":    false,
			"children":          children,
		},
	}
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

func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row[:width]
}

// ParseInlineFormatting splits text into rich text segments, recognizing
// **bold**, *italic* and [text](url) links.
func ParseInlineFormatting(text string) []RichText {
	var segments []RichText

	last := 0
	for _, loc := range inlineSpanRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, plainText(text[last:loc[0]]))
		}

		switch {
		case loc[2] != -1: // **bold**
			segments = append(segments, RichText{
				Type:        "text",
				Text:        RichTextContent{Content: text[loc[2]:loc[3]]},
				Annotations: map[string]bool{"bold": true},
			})
		case loc[4] != -1: // *italic*
			segments = append(segments, RichText{
				Type:        "text",
				Text:        RichTextContent{Content: text[loc[4]:loc[5]]},
				Annotations: map[string]bool{"italic": true},
			})
		case loc[6] != -1: // [text](url)
			segments = append(segments, RichText{
				Type: "text",
				Text: RichTextContent{
					Content: text[loc[6]:loc[7]],
					Link:    &RichTextLink{URL: text[loc[8]:loc[9]]},
				},
			})
		}

		last = loc[1]
	}

	if last < len(text) {
		segments = append(segments, plainText(text[last:]))
	}

	if len(segments) == 0 {
		return []RichText{plainText(text)}
	}
	return segments
}
