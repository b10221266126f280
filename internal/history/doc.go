// Package history persists daily assignments to SQLite so past picks
// survive the ledger's midnight reset.
package history
