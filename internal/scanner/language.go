package scanner

import "strings"

// FileKind classifies a discovered file for the analysis pipeline.
type FileKind string

const (
	KindSource  FileKind = "source"
	KindHeader  FileKind = "header"
	KindUnknown FileKind = "unknown"
)

var sourceExtensions = map[string]bool{
	".cpp": true,
	".cc":  true,
	".cxx": true,
	".c":   true,
}

var headerExtensions = map[string]bool{
	".h":   true,
	".hpp": true,
	".hxx": true,
	".hh":  true,
}

// DetectKind classifies a file extension as C++ source, header or unknown.
func DetectKind(ext string) FileKind {
	ext = strings.ToLower(ext)
	switch {
	case sourceExtensions[ext]:
		return KindSource
	case headerExtensions[ext]:
		return KindHeader
	default:
		return KindUnknown
	}
}

// IsSupported reports whether the extension belongs to a file the
// pipeline can analyze.
func IsSupported(ext string) bool {
	return DetectKind(ext) != KindUnknown
}
