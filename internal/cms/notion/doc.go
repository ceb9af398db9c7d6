// Package notion implements the cms.Adapter interface against the Notion
// REST API: articles become database pages whose body is assembled from
// Notion blocks, and trigger databases are polled for requested topics.
package notion
