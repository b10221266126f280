// Package imagefetch downloads images under size and time limits and writes
// them into the pictures directory. It also sniffs image format signatures
// from header bytes, which the catalog uses to validate stored files.
package imagefetch
