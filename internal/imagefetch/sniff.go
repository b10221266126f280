package imagefetch

import "bytes"

// HeaderLen is the number of leading bytes DetectFormat needs to classify
// every supported format.
const HeaderLen = 32

// DetectFormat classifies image bytes by their signature. It returns one of
// "jpeg", "png", "gif", "webp", "bmp", or "" when no signature matches.
func DetectFormat(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return "png"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	case len(data) >= 2 && bytes.Equal(data[:2], []byte("BM")):
		return "bmp"
	default:
		return ""
	}
}

// ExtensionFor maps a detected format to its canonical file extension.
// Unknown formats fall back to FixedExtension.
func ExtensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	case "bmp":
		return ".bmp"
	default:
		return FixedExtension
	}
}
