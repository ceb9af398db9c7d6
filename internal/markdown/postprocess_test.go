package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkpress/inkpress-api/internal/markdown"
)

func TestPostProcess_StripBoldFromBullets(t *testing.T) {
	t.Parallel()

	input := "Intro paragraph with **bold** kept.\n" +
		"- **Speed:** renders in under a second\n" +
		"* **Cost:** free tier available\n" +
		"Regular line with **emphasis** untouched."

	got := markdown.PostProcess(input)

	assert.Contains(t, got, "- Speed: renders in under a second")
	assert.Contains(t, got, "* Cost: free tier available")
	assert.Contains(t, got, "Intro paragraph with **bold** kept.")
	assert.Contains(t, got, "Regular line with **emphasis** untouched.")
}

func TestPostProcess_TablesToHTML(t *testing.T) {
	t.Parallel()

	input := "Before table.\n\n" +
		"| Feature | Value |\n" +
		"|---------|-------|\n" +
		"| Uptime  | 99.9% |\n" +
		"| Region  | EU    |\n\n" +
		"After table."

	got := markdown.PostProcess(input)

	assert.Contains(t, got, "<table>")
	assert.Contains(t, got, "<th>Feature</th><th>Value</th>")
	assert.Contains(t, got, "<td>Uptime</td><td>99.9%</td>")
	assert.Contains(t, got, "<td>Region</td><td>EU</td>")
	assert.Contains(t, got, "Before table.")
	assert.Contains(t, got, "After table.")
	assert.NotContains(t, got, "|---")
}

func TestPostProcess_TableCellsAreEscaped(t *testing.T) {
	t.Parallel()

	input := "| Name |\n|------|\n| a<b & c |\n"

	got := markdown.PostProcess(input)

	assert.Contains(t, got, "<td>a&lt;b &amp; c</td>")
}

func TestPostProcess_RemovesUnwantedSections(t *testing.T) {
	t.Parallel()

	input := "## Introduction\n\nBody text.\n\n" +
		"## Sources Checked\n\n- example.com\n- another.com\n\n" +
		"## Conclusion\n\nFinal thoughts.\n\n" +
		"## Brand Mention\n\nSome meta commentary."

	got := markdown.PostProcess(input)

	assert.Contains(t, got, "## Introduction")
	assert.Contains(t, got, "## Conclusion")
	assert.Contains(t, got, "Final thoughts.")
	assert.NotContains(t, got, "Sources Checked")
	assert.NotContains(t, got, "example.com")
	assert.NotContains(t, got, "Brand Mention")
	assert.NotContains(t, got, "meta commentary")
}

func TestPostProcess_NoChangesNeeded(t *testing.T) {
	t.Parallel()

	input := "## Heading\n\nPlain paragraph.\n\n- plain bullet"

	got := markdown.PostProcess(input)

	assert.Equal(t, input, got)
}

func TestReadTimeMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		words int
		want  int
	}{
		{name: "empty content", words: 0, want: 1},
		{name: "short content", words: 50, want: 1},
		{name: "exactly one minute", words: 200, want: 1},
		{name: "rounds up past half", words: 500, want: 3},
		{name: "long article", words: 2000, want: 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			content := strings.TrimSpace(strings.Repeat("word ", tc.words))
			assert.Equal(t, tc.want, markdown.ReadTimeMinutes(content))
		})
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple title", input: "Hello World", want: "hello-world"},
		{name: "punctuation stripped", input: "What's New in Go 1.23?", want: "what-s-new-in-go-1-23"},
		{name: "leading and trailing noise", input: "  --Already--Sluggish--  ", want: "already-sluggish"},
		{name: "no usable characters", input: "!!!", want: "untitled"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, markdown.Slugify(tc.input))
		})
	}
}
