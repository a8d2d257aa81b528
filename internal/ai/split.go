package ai

import (
	"regexp"
	"strings"
)

// postMarker matches "POST <n>:" with any case and spacing
var postMarker = regexp.MustCompile(`(?i)POST\s+\d+:`)

// SplitPosts cuts the expansion output on POST markers.
// Text before the first marker is kept when non-empty, empty fragments are
// dropped, and order follows the text rather than the marker numbers.
func SplitPosts(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	parts := postMarker.Split(raw, -1)
	posts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			posts = append(posts, p)
		}
	}
	return posts
}
