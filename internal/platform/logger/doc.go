// Package logger provides structured logging setup and helpers for carrying
// a request-scoped logger through context.
package logger
