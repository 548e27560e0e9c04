// Package media turns content references (remote URLs or local paths)
// into handles a platform adapter can consume, and classifies media by
// apparent type.
package media

import (
	"net/url"
	"os"
	"path"
	"strings"
)

// Kind is the apparent media category, derived from the file extension.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "document"
	}
}

var (
	imageExtensions = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true, "webp": true,
	}
	videoExtensions = map[string]bool{
		"mp4": true, "mov": true, "avi": true, "mkv": true, "wmv": true, "flv": true, "webm": true,
	}
)

// Classify returns the media kind for a file name or URL, judged by its
// extension. Anything unrecognized is a document.
func Classify(name string) Kind {
	ext := Extension(name)
	switch {
	case imageExtensions[ext]:
		return KindImage
	case videoExtensions[ext]:
		return KindVideo
	default:
		return KindDocument
	}
}

// Extension extracts the lowercased file extension from a URL or path,
// ignoring any query string. It falls back to "jpg" when the reference
// has no usable extension.
func Extension(ref string) string {
	trimmed := ref
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		// A bare domain has an empty path and therefore no extension.
		trimmed = u.Path
	} else if i := strings.IndexByte(trimmed, '?'); i >= 0 {
		trimmed = trimmed[:i]
	}

	ext := strings.TrimPrefix(path.Ext(trimmed), ".")
	if ext == "" {
		return "jpg"
	}
	return strings.ToLower(ext)
}

// IsRemote reports whether the reference is an http(s) URL.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Handle is one resolved media item. Path points at a local file when
// the media was downloaded or was local to begin with; URL keeps the
// original remote reference for platforms that accept it directly.
// Exactly one dispatch unit owns a handle at a time.
type Handle struct {
	Path string
	URL  string
	Kind Kind

	temp bool
}

// Local reports whether the handle is backed by a local file.
func (h *Handle) Local() bool {
	return h != nil && h.Path != ""
}

// Cleanup removes the temporary file behind the handle, if any. It is
// idempotent and safe on handles that never touched disk; it must be
// called on every exit path once the handle is no longer needed.
func (h *Handle) Cleanup() error {
	if h == nil || !h.temp || h.Path == "" {
		return nil
	}
	err := os.Remove(h.Path)
	h.Path = ""
	h.temp = false
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
