package skills_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-api/internal/agent"
	"github.com/inkpress/inkpress-api/internal/agent/skills"
	"github.com/inkpress/inkpress-api/internal/cms"
	"github.com/inkpress/inkpress-api/internal/domain"
)

// fakeProvider is a canned AIProvider for skill tests.
type fakeProvider struct {
	generateText  string
	generateErr   error
	jsonPayloads  map[string]string
	jsonErr       error
	systemPrompts []string
}

func (f *fakeProvider) Generate(_ context.Context, systemPrompt, _ string, _ int32) (string, error) {
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateText, nil
}

func (f *fakeProvider) GenerateJSON(_ context.Context, systemPrompt, _, schemaName string, out any) error {
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	if f.jsonErr != nil {
		return f.jsonErr
	}

	payload, ok := f.jsonPayloads[schemaName]
	if !ok {
		return fmt.Errorf("no canned payload for schema %q", schemaName)
	}
	return json.Unmarshal([]byte(payload), out)
}

func brandFixture() *domain.BrandProfile {
	return &domain.BrandProfile{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		CompanyName:    "Acme Cloud",
		Industry:       "cloud infrastructure",
		BrandTone:      "pragmatic",
		TargetAudience: "platform engineers",
	}
}

func taskContextFixture() *agent.TaskContext {
	return &agent.TaskContext{
		TaskID:   uuid.New(),
		TenantID: uuid.New(),
		Topic:    "zero-downtime deployments",
		Keywords: []string{"kubernetes", "rollouts"},
		Brand:    brandFixture(),
	}
}

func TestBlogGeneration_ProducesDraft(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		generateText: "## Why it matters\n\n- **Safety:** fewer failed deploys\n\nBody text.",
		jsonPayloads: map[string]string{
			"blog_metadata": `{"title":"Zero-Downtime Deployments","slug":"zero-downtime-deployments","excerpt":"How to ship without dropping requests.","tags":["kubernetes","deployments"]}`,
		},
	}

	skill := skills.NewBlogGeneration(nil, provider)
	taskCtx := taskContextFixture()
	artifacts := &agent.Artifacts{}

	require.True(t, skill.CanExecute(taskCtx, artifacts))
	require.NoError(t, skill.Execute(context.Background(), taskCtx, artifacts))

	require.NotNil(t, artifacts.Blog)
	assert.Equal(t, "Zero-Downtime Deployments", artifacts.Blog.Title)
	assert.Equal(t, "zero-downtime-deployments", artifacts.Blog.Slug)
	assert.Equal(t, []string{"kubernetes", "deployments"}, artifacts.Blog.Tags)
	assert.Equal(t, "Acme Cloud", artifacts.Blog.Author, "author falls back to company name")
	assert.GreaterOrEqual(t, artifacts.Blog.ReadTimeMinutes, 1)

	// Post-processing stripped the bold label inside the bullet.
	assert.Contains(t, artifacts.Blog.Content, "- Safety: fewer failed deploys")
	assert.NotContains(t, artifacts.Blog.Content, "**Safety:**")
}

func TestBlogGeneration_MetadataFallbacks(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		generateText: "Body.",
		jsonPayloads: map[string]string{
			"blog_metadata": `{"title":"","slug":"","excerpt":""}`,
		},
	}

	skill := skills.NewBlogGeneration(nil, provider)
	taskCtx := taskContextFixture()
	artifacts := &agent.Artifacts{}

	require.NoError(t, skill.Execute(context.Background(), taskCtx, artifacts))

	assert.Equal(t, taskCtx.Topic, artifacts.Blog.Title)
	assert.Equal(t, "zero-downtime-deployments", artifacts.Blog.Slug)
}

func TestBlogGeneration_CustomPromptSubstitutesTopic(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		generateText: "Body.",
		jsonPayloads: map[string]string{
			"blog_metadata": `{"title":"T","slug":"t"}`,
		},
	}

	skill := skills.NewBlogGeneration(nil, provider)
	taskCtx := taskContextFixture()
	taskCtx.Brand.CustomPrompt = "Write like a pirate about {TOPIC}."
	artifacts := &agent.Artifacts{}

	require.NoError(t, skill.Execute(context.Background(), taskCtx, artifacts))

	require.NotEmpty(t, provider.systemPrompts)
	assert.Equal(t, "Write like a pirate about zero-downtime deployments.", provider.systemPrompts[0])
}

func TestBlogGeneration_ProviderFailurePropagates(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{generateErr: errors.New("model unavailable")}
	skill := skills.NewBlogGeneration(nil, provider)

	err := skill.Execute(context.Background(), taskContextFixture(), &agent.Artifacts{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestSEOMetadata_GuardsAndBackfills(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		jsonPayloads: map[string]string{
			"seo_metadata": `{"meta_title":"","meta_description":"","focus_keyword":"rollouts"}`,
		},
	}
	skill := skills.NewSEOMetadata(nil, provider)
	taskCtx := taskContextFixture()

	assert.False(t, skill.CanExecute(taskCtx, &agent.Artifacts{}), "no draft, no SEO")

	artifacts := &agent.Artifacts{
		Blog: &domain.BlogDraft{Title: "Draft Title", Excerpt: "Draft excerpt."},
	}
	require.True(t, skill.CanExecute(taskCtx, artifacts))
	require.NoError(t, skill.Execute(context.Background(), taskCtx, artifacts))

	require.NotNil(t, artifacts.SEO)
	assert.Equal(t, "Draft Title", artifacts.SEO.MetaTitle)
	assert.Equal(t, "Draft excerpt.", artifacts.SEO.MetaDescription)
	assert.Equal(t, "Draft Title", artifacts.SEO.OGTitle)
	assert.Equal(t, "rollouts", artifacts.SEO.FocusKeyword)

	assert.False(t, skill.CanExecute(taskCtx, artifacts), "existing SEO skips the skill")
}

// fakeImageGen and fakeUploader drive the cover image skill.
type fakeImageGen struct {
	data []byte
	err  error
}

func (f *fakeImageGen) GenerateImage(context.Context, string) ([]byte, string, error) {
	return f.data, "image/png", f.err
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(context.Context, string, []byte) (string, error) {
	return f.url, f.err
}

func TestCoverImage_SetsArtifactURL(t *testing.T) {
	t.Parallel()

	skill := skills.NewCoverImage(nil,
		&fakeImageGen{data: []byte{1, 2}},
		&fakeUploader{url: "https://tmpfiles.org/dl/1/cover.png"},
		true)

	taskCtx := taskContextFixture()
	artifacts := &agent.Artifacts{Blog: &domain.BlogDraft{Title: "T", Slug: "t"}}

	require.True(t, skill.CanExecute(taskCtx, artifacts))
	require.NoError(t, skill.Execute(context.Background(), taskCtx, artifacts))
	assert.Equal(t, "https://tmpfiles.org/dl/1/cover.png", artifacts.CoverImageURL)
}

func TestCoverImage_FailuresAreNonFatal(t *testing.T) {
	t.Parallel()

	skill := skills.NewCoverImage(nil,
		&fakeImageGen{err: errors.New("image model down")},
		&fakeUploader{},
		true)

	artifacts := &agent.Artifacts{Blog: &domain.BlogDraft{Title: "T", Slug: "t"}}

	require.NoError(t, skill.Execute(context.Background(), taskContextFixture(), artifacts))
	assert.Empty(t, artifacts.CoverImageURL)
}

func TestCoverImage_DisabledGuard(t *testing.T) {
	t.Parallel()

	skill := skills.NewCoverImage(nil, &fakeImageGen{}, &fakeUploader{}, false)
	artifacts := &agent.Artifacts{Blog: &domain.BlogDraft{}}

	assert.False(t, skill.CanExecute(taskContextFixture(), artifacts))
}

// fakeAdapter records the publish request.
type fakeAdapter struct {
	result *cms.PublishResult
	err    error
	gotReq cms.PublishRequest
}

func (f *fakeAdapter) PublishContent(_ context.Context, _ *domain.CMSConnection, req cms.PublishRequest) (*cms.PublishResult, error) {
	f.gotReq = req
	return f.result, f.err
}

func (f *fakeAdapter) FetchPendingTriggers(context.Context, *domain.CMSConnection) ([]cms.Trigger, error) {
	return nil, nil
}

func (f *fakeAdapter) MarkTriggerProcessing(context.Context, *domain.CMSConnection, string) error {
	return nil
}

func (f *fakeAdapter) MarkTriggerPublished(context.Context, *domain.CMSConnection, string, string) error {
	return nil
}

func (f *fakeAdapter) MarkTriggerFailed(context.Context, *domain.CMSConnection, string, string) error {
	return nil
}

func TestCMSPublish_PublishesThroughAdapter(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{result: &cms.PublishResult{PageID: "page-1", PageURL: "https://notion.so/page-1"}}
	factory := cms.NewFactory()
	factory.Register(domain.CMSProviderNotion, adapter)

	skill := skills.NewCMSPublish(nil, factory)
	taskCtx := taskContextFixture()
	taskCtx.CMSConnection = &domain.CMSConnection{
		TenantID:          taskCtx.TenantID,
		Provider:          domain.CMSProviderNotion,
		AccessToken:       "secret",
		ContentDatabaseID: "db-1",
		IsActive:          true,
	}

	artifacts := &agent.Artifacts{
		Blog:          &domain.BlogDraft{Title: "T", Slug: "t"},
		SEO:           &domain.SEOMetadata{MetaTitle: "T"},
		CoverImageURL: "https://img.example/c.png",
	}

	require.True(t, skill.CanExecute(taskCtx, artifacts))
	require.NoError(t, skill.Execute(context.Background(), taskCtx, artifacts))

	assert.Equal(t, "page-1", artifacts.PublishedCMSID)
	assert.Equal(t, "https://notion.so/page-1", artifacts.PublishedURL)
	assert.Equal(t, "https://img.example/c.png", adapter.gotReq.CoverImageURL)
}

func TestCMSPublish_NoConnectionSkips(t *testing.T) {
	t.Parallel()

	skill := skills.NewCMSPublish(nil, cms.NewFactory())
	artifacts := &agent.Artifacts{Blog: &domain.BlogDraft{}}

	assert.False(t, skill.CanExecute(taskContextFixture(), artifacts))
}

func TestCMSPublish_UnsupportedProvider(t *testing.T) {
	t.Parallel()

	skill := skills.NewCMSPublish(nil, cms.NewFactory())
	taskCtx := taskContextFixture()
	taskCtx.CMSConnection = &domain.CMSConnection{
		TenantID:          taskCtx.TenantID,
		Provider:          "wordpress",
		AccessToken:       "secret",
		ContentDatabaseID: "db-1",
	}

	err := skill.Execute(context.Background(), taskCtx, &agent.Artifacts{Blog: &domain.BlogDraft{}})

	assert.ErrorIs(t, err, cms.ErrUnsupportedProvider)
}

func TestRegisterAll_RegistersDefaultPipelineSkills(t *testing.T) {
	t.Parallel()

	registry := agent.NewRegistry(nil)
	skills.RegisterAll(registry, skills.Deps{
		Provider: &fakeProvider{},
		CMS:      cms.NewFactory(),
	})

	for _, name := range agent.DefaultPipeline {
		assert.True(t, registry.Has(name), "missing skill %q", name)
	}
}
