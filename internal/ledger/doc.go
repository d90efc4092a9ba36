// Package ledger is the debt aggregation engine. It turns a user's already-fetched
// counterparties and transactions into balances, debt threads, statistics and
// recurrence decisions.
//
// Every function here is pure: inputs are never mutated, results are freshly
// allocated, and the same input always yields the same output. Nothing in this
// package performs I/O or returns errors; malformed references are filtered out
// and reported through dedicated functions instead.
package ledger
