// Package storage persists which feed items were already forwarded, plus a
// compact audit trail of forward runs and operator commands.
//
// Backends: "file" (JSON lines journal + snapshot), "sqlite" (modernc.org/sqlite)
// and an in-memory store used when persistence is disabled.
package storage
