// Package daemon hosts the catalog, daily ledger, and history stores as a
// single-instance background process.
package daemon
