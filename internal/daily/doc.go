// Package daily assigns each user one catalog entry per calendar day. The
// assignment table and its effective date persist as two small JSON files;
// the table resets on the first lookup after a date rollover. A stored
// assignment pointing at a deleted entry heals itself: the stale mapping is
// dropped and the user gets a fresh pick.
package daily
