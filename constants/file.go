package constants

import "strings"

// ImageExtensions holds the recognized image extensions for the
// recognition stage, lowercased without the dot.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// HEICExtensions holds the extensions the conversion stage consumes.
var HEICExtensions = map[string]struct{}{
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext names a recognizable image file.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

// IsHEICExt reports whether ext names a HEIC/HEIF file.
func IsHEICExt(ext string) bool {
	_, ok := HEICExtensions[NormalizeExt(ext)]
	return ok
}
