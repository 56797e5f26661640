package app

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const imagePrefix = "/images/"

var binaryExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".svg":  {},
	".ico":  {},
	".pdf":  {},
}

// IsBinaryPath reports whether p names an asset that is streamed straight
// from the webroot instead of being rendered.
func IsBinaryPath(p string) bool {
	if strings.HasPrefix(p, imagePrefix) {
		return true
	}
	_, ok := binaryExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// NormalizePath returns the canonical form of a request path: rooted,
// cleaned and in Unicode NFC so that decomposed input still matches the
// segment names stored in Mesh.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	return norm.NFC.String(p)
}
