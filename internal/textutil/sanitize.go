package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces characters that are illegal in filenames on the
// common filesystems with underscores.
var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizeFileName maps arbitrary text to a safe filename fragment. Illegal
// characters become underscores and the result is bounded at maxLength bytes.
// Truncation keeps the extension when possible; an extension that alone
// exceeds the limit is itself truncated from the left. The input is
// NFC-normalized first so visually identical names yield one filename.
func SanitizeFileName(name string, maxLength int) string {
	name = fileNameReplacer.Replace(norm.NFC.String(name))
	if maxLength <= 0 || len(name) <= maxLength {
		return name
	}

	stem, ext := splitExt(name)
	maxStem := maxLength - len(ext)
	if maxStem > 0 {
		return truncateHead(stem, maxStem) + ext
	}
	return truncateTail(ext, maxLength)
}

// truncateHead keeps at most max leading bytes of s, backing up so a
// multi-byte rune is never split.
func truncateHead(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// truncateTail keeps at most max trailing bytes of s, advancing past a
// partial rune at the cut.
func truncateTail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	start := len(s) - max
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}

// splitExt separates a filename into stem and extension. A leading dot or a
// name without a dot yields an empty extension.
func splitExt(name string) (string, string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
