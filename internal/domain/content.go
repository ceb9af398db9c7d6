package domain

// BlogDraft is the article produced by the blog generation skill. Content is
// markdown after post-processing.
type BlogDraft struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         string   `json:"excerpt"`
	Content         string   `json:"content"`
	Author          string   `json:"author"`
	ReadTimeMinutes int      `json:"read_time_minutes"`
	Tags            []string `json:"tags"`
}

// SEOMetadata is the search and social metadata derived from a blog draft.
type SEOMetadata struct {
	MetaTitle         string   `json:"meta_title"`
	MetaDescription   string   `json:"meta_description"`
	FocusKeyword      string   `json:"focus_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	OGTitle           string   `json:"og_title"`
	OGDescription     string   `json:"og_description"`
}

// ContentOutput is the final payload persisted on a completed task. It is
// assembled by the orchestrator from the pipeline's artifacts and stored
// atomically at the end of a successful run.
type ContentOutput struct {
	Blog           BlogDraft    `json:"blog"`
	SEO            *SEOMetadata `json:"seo,omitempty"`
	CoverImageURL  string       `json:"cover_image_url,omitempty"`
	PublishedURL   string       `json:"published_url,omitempty"`
	PublishedCMSID string       `json:"published_cms_id,omitempty"`
}
