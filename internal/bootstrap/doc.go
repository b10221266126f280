// Package bootstrap seeds an empty data directory by mirroring the asset
// repository (catalog JSON plus picture directory) from a git-hosting
// contents API, with an optional mirror host fallback.
package bootstrap
