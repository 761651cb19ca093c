package corpus

import (
	"path"
	"regexp"
	"strings"
)

var findLinkRegex = regexp.MustCompile(`(?i)<a\s+(?:[^>]*?)href\s*=\s*"([^"]*)"`)

// extractLinks returns the unique href targets of all anchor tags in content
// in the order they first appear.
func extractLinks(content string) []string {
	var (
		links   []string
		seenMap = make(map[string]struct{})
	)
	for _, match := range findLinkRegex.FindAllStringSubmatch(content, -1) {
		link := normalizeLink(match[1])
		if link == "" {
			continue
		}
		if _, seen := seenMap[link]; seen {
			continue
		}
		seenMap[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// normalizeLink drops any anchor or query from target and cleans up relative
// path elements so that "./2.html#top" and "2.html" refer to the same page.
// Links with a scheme are returned verbatim minus the anchor.
func normalizeLink(target string) string {
	target = strings.TrimSpace(target)
	if idx := strings.IndexByte(target, '#'); idx != -1 {
		target = target[:idx]
	}
	if strings.Contains(target, "://") {
		return target
	}
	if idx := strings.IndexByte(target, '?'); idx != -1 {
		target = target[:idx]
	}
	if target == "" {
		return ""
	}
	return path.Clean(target)
}
