package filesystem

import (
	"net/url"
	"strings"
)

// ResolvePath converts a document URI to a local path.
// file:// URIs are unescaped; bare paths pass through unchanged.
func ResolvePath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		return u.Path
	}
	return strings.TrimPrefix(uri, "file://")
}
