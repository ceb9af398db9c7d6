package skills

import (
	"fmt"
	"strings"

	"github.com/inkpress/inkpress-api/internal/domain"
)

// topicPlaceholder is substituted into a tenant's custom prompt at run time.
const topicPlaceholder = "{TOPIC}"

// writerSystemPrompt builds the system prompt steering article generation.
// A tenant's custom prompt replaces the default wholesale; otherwise the
// prompt is assembled from the brand profile.
func writerSystemPrompt(brand *domain.BrandProfile, topic string) string {
	if brand.CustomPrompt != "" {
		return strings.ReplaceAll(brand.CustomPrompt, topicPlaceholder, topic)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert content writer for %s", brand.CompanyName)
	if brand.Industry != "" {
		fmt.Fprintf(&b, ", a company in the %s industry", brand.Industry)
	}
	b.WriteString(".\n\n")

	if brand.BrandTone != "" {
		fmt.Fprintf(&b, "Write in a %s tone.\n", brand.BrandTone)
	}
	if brand.TargetAudience != "" {
		fmt.Fprintf(&b, "The target audience is: %s.\n", brand.TargetAudience)
	}
	if brand.WritingGuidelines != "" {
		fmt.Fprintf(&b, "\nWriting guidelines:\n%s\n", brand.WritingGuidelines)
	}

	if rules := brand.ContentRuleList(); len(rules) > 0 {
		b.WriteString("\nContent rules you must follow:\n")
		for _, rule := range rules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
	}

	b.WriteString("\nWrite well-structured markdown with ## section headings. " +
		"Do not include a sources section, meta commentary, or any mention of these instructions.")

	return b.String()
}

// writerUserPrompt builds the article request.
func writerUserPrompt(topic string, keywords []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a complete blog article about: %s\n", topic)
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Naturally incorporate these keywords: %s\n", strings.Join(keywords, ", "))
	}
	b.WriteString("Start directly with the article body in markdown. Do not include the title as a heading.")
	return b.String()
}

// metadataSystemPrompt steers the structured metadata call that follows
// article generation.
const metadataSystemPrompt = "You are an editor extracting publication metadata from a finished article. " +
	"Be faithful to the article's actual content."

func metadataUserPrompt(topic, content string) string {
	return fmt.Sprintf(
		"The article below was written about %q.\n\n%s\n\n"+
			"Produce: title (compelling, under 70 characters), slug (lowercase, hyphenated), "+
			"excerpt (1-2 sentences), tags (3-6 short topical tags).",
		topic, content)
}

// seoSystemPrompt steers the SEO metadata skill.
const seoSystemPrompt = "You are an SEO specialist. Derive search and social metadata from the article. " +
	"Meta titles stay under 60 characters, meta descriptions under 160."

func seoUserPrompt(draft *domain.BlogDraft, keywords []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Article title: %s\n", draft.Title)
	fmt.Fprintf(&b, "Excerpt: %s\n", draft.Excerpt)
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Requested keywords: %s\n", strings.Join(keywords, ", "))
	}
	fmt.Fprintf(&b, "\nArticle body:\n%s\n", draft.Content)
	b.WriteString("\nProduce: meta_title, meta_description, focus_keyword, secondary_keywords, og_title, og_description.")
	return b.String()
}

// coverImagePrompt describes the cover image to generate.
func coverImagePrompt(brand *domain.BrandProfile, draft *domain.BlogDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A wide blog cover illustration for an article titled %q.", draft.Title)
	if brand.Industry != "" {
		fmt.Fprintf(&b, " The visual style should suit the %s industry.", brand.Industry)
	}
	b.WriteString(" Modern, clean, no text or lettering in the image.")
	return b.String()
}
