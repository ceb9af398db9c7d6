// Package domain contains the core business entities of the application:
// tenants with their brand profiles and CMS connections, content generation
// tasks with their lifecycle status, and the structured outputs (blog draft,
// SEO metadata) produced by the generation pipeline. Domain objects validate
// themselves and carry no persistence or transport concerns.
package domain
