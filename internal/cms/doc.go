// Package cms defines the provider-neutral interface to tenant CMS targets:
// publishing finished content and polling trigger databases for requested
// topics. Provider implementations live in subpackages (internal/cms/notion).
package cms
