package access

import (
	"path"
	"strings"
)

// DefaultIndexName is substituted for directory-style request paths.
const DefaultIndexName = "index.html"

// Extension is a lowercase file extension without the leading dot.
type Extension string

const (
	ExtGzip Extension = "gzip"
	ExtHTML Extension = "html"
	ExtPHP  Extension = "php"
	ExtIcon Extension = "ico"
	ExtCSS  Extension = "css"
	ExtPNG  Extension = "png"
)

// ExtensionSet is the set of extensions subject to access control.
type ExtensionSet map[Extension]struct{}

// NewExtensionSet builds a set, normalizing each entry.
func NewExtensionSet(exts ...Extension) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		normalized := Extension(strings.ToLower(strings.TrimPrefix(string(ext), ".")))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

// DefaultProtectedExtensions returns the archive, markup, script, icon,
// stylesheet and image types served by the backup pages.
func DefaultProtectedExtensions() ExtensionSet {
	return NewExtensionSet(ExtGzip, ExtHTML, ExtPHP, ExtIcon, ExtCSS, ExtPNG)
}

func (s ExtensionSet) Has(ext Extension) bool {
	_, ok := s[ext]
	return ok
}

// ExtensionFor returns the extension of the last segment of urlPath. When
// the segment has none, indexName is appended as if the path named a
// directory and the extension is taken from that instead.
func ExtensionFor(urlPath, indexName string) Extension {
	if ext := extensionOf(urlPath); ext != "" {
		return ext
	}
	if indexName == "" {
		indexName = DefaultIndexName
	}
	return extensionOf(strings.TrimRight(urlPath, "/") + "/" + indexName)
}

func extensionOf(p string) Extension {
	base := path.Base(p)
	if base == "/" || base == "." {
		return ""
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	return Extension(strings.ToLower(ext))
}
