// Package markdown contains helpers for cleaning up AI-generated markdown
// and deriving presentation metadata (read time, URL slugs) from it.
package markdown
