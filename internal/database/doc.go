// Package database provides SQLite-based storage for the form tester.
//
// This package implements the ResultDB, which stores:
//   - Per-action result entries for every processed domain
//   - The suppression list of addresses that must never be emailed again
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The suppression list in particular must survive across runs: a hard
// bounce means the address is gone, and re-sending to it damages sender
// reputation. A durable single-file store fits that requirement.
package database
