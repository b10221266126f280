// Package textutil provides filename sanitization for generated picture
// names: illegal filesystem characters are replaced, Unicode is normalized,
// and length is bounded while preserving the extension.
package textutil
