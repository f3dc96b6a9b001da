package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// SourceType classifies a file by format.
type SourceType string

// Source types.
const (
	SourceTypeText     SourceType = "text"
	SourceTypeMarkdown SourceType = "markdown"
	SourceTypePDF      SourceType = "pdf"
	SourceTypePython   SourceType = "python"
	SourceTypeCode     SourceType = "code"
	SourceTypeJSON     SourceType = "json"
	SourceTypeCSV      SourceType = "csv"
	SourceTypeHTML     SourceType = "html"
	SourceTypeUnknown  SourceType = "unknown"
)

// String returns the string representation.
func (t SourceType) String() string {
	return string(t)
}

// supportedExtensions maps each ingestible extension to its source type.
var supportedExtensions = map[string]SourceType{
	".txt":      SourceTypeText,
	".md":       SourceTypeMarkdown,
	".markdown": SourceTypeMarkdown,
	".pdf":      SourceTypePDF,
	".py":       SourceTypePython,
	".go":       SourceTypeCode,
	".js":       SourceTypeCode,
	".ts":       SourceTypeCode,
	".java":     SourceTypeCode,
	".rs":       SourceTypeCode,
	".c":        SourceTypeCode,
	".h":        SourceTypeCode,
	".cpp":      SourceTypeCode,
	".rb":       SourceTypeCode,
	".sh":       SourceTypeCode,
	".sql":      SourceTypeCode,
	".json":     SourceTypeJSON,
	".csv":      SourceTypeCSV,
	".html":     SourceTypeHTML,
	".htm":      SourceTypeHTML,
}

// NormalizeExtension lower-cases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExtensionOf returns the normalised extension of a path.
func ExtensionOf(path string) string {
	return NormalizeExtension(filepath.Ext(path))
}

// IsSupportedExtension reports whether files with ext are ingested.
// The comparison is case-insensitive.
func IsSupportedExtension(ext string) bool {
	_, ok := supportedExtensions[NormalizeExtension(ext)]
	return ok
}

// SourceTypeForExtension classifies an extension.
// Unsupported extensions return SourceTypeUnknown.
func SourceTypeForExtension(ext string) SourceType {
	if t, ok := supportedExtensions[NormalizeExtension(ext)]; ok {
		return t
	}
	return SourceTypeUnknown
}

// SupportedExtensions returns the supported extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
