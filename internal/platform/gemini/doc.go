// Package gemini implements the generation.AIProvider interface using
// Google's Gemini API.
package gemini
