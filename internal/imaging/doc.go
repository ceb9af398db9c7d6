// Package imaging generates and hosts cover images for articles. Generation
// goes through an OpenRouter-compatible chat completions endpoint whose
// image-capable models return the image as a base64 data URL; hosting
// uploads the bytes to a public file host so the CMS can reference them.
package imaging
