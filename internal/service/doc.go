// Package service contains the application services sitting between the
// HTTP handlers and the stores: tenant administration and the content task
// lifecycle as seen from the API.
package service
