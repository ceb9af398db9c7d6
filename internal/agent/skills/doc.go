// Package skills contains the concrete pipeline skills: blog generation,
// SEO metadata, cover image and CMS publishing. Each skill is constructed
// with its dependencies and registered into an agent.Registry at startup.
package skills
