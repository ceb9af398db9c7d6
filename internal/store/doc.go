// Package store defines the persistence interfaces consumed by the
// application core, along with shared database abstractions (DBTX,
// transactions) and sentinel errors. Concrete implementations live in
// internal/platform/postgres.
package store
