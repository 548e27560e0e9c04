package monitor

import (
	"strings"
	"unicode/utf8"
)

// DefaultStopMarkers flag promotional posts that should not be
// cross-posted.
var DefaultStopMarkers = []string{
	"#ad",
	"#sponsored",
	"#реклама",
}

// Filter drops source posts that should not be re-posted.
type Filter struct {
	stopMarkers []string
	minLength   int
}

// FilterConfig holds filter configuration.
type FilterConfig struct {
	// AdditionalMarkers extends DefaultStopMarkers.
	AdditionalMarkers []string
	// MinLength is the minimum text length in runes for posts without
	// media. 0 disables the check.
	MinLength int
}

// NewFilter creates a new filter.
func NewFilter(cfg FilterConfig) *Filter {
	markers := make([]string, 0, len(DefaultStopMarkers)+len(cfg.AdditionalMarkers))
	markers = append(markers, DefaultStopMarkers...)
	markers = append(markers, cfg.AdditionalMarkers...)
	for i, m := range markers {
		markers[i] = strings.ToLower(m)
	}

	return &Filter{
		stopMarkers: markers,
		minLength:   cfg.MinLength,
	}
}

// FilterResult contains the filter decision.
type FilterResult struct {
	Pass   bool
	Reason string
}

// Check examines a source post and returns whether it should be
// dispatched.
func (f *Filter) Check(post SourcePost) FilterResult {
	if post.Text == "" && len(post.MediaURLs) == 0 {
		return FilterResult{Pass: false, Reason: "post has no content"}
	}

	if f.minLength > 0 && len(post.MediaURLs) == 0 && utf8.RuneCountInString(post.Text) < f.minLength {
		return FilterResult{Pass: false, Reason: "text below minimum length"}
	}

	text := strings.ToLower(post.Text)
	for _, marker := range f.stopMarkers {
		if strings.Contains(text, marker) {
			return FilterResult{Pass: false, Reason: "contains stop marker: " + marker}
		}
	}

	return FilterResult{Pass: true}
}

// Apply filters a list of posts, returning only those that pass.
func (f *Filter) Apply(posts []SourcePost) []SourcePost {
	result := make([]SourcePost, 0, len(posts))
	for _, post := range posts {
		if check := f.Check(post); check.Pass {
			result = append(result, post)
		}
	}
	return result
}
