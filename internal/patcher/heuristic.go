package patcher

import (
	"regexp"
	"sort"

	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
)

// Attribute values may contain '>', so quoted runs are consumed whole.
var (
	containerTag = regexp.MustCompile(`(?i)<(?:div|article)(?:[\s/](?:[^>"']|"[^"]*"|'[^']*')*)?>`)
	anchorTag    = regexp.MustCompile(`(?i)<a(?:[\s/](?:[^>"']|"[^"]*"|'[^']*')*)?>`)
)

// heuristicScan treats each container as running until the next container
// opens. Nesting is not tracked.
func heuristicScan(body string, candidates []string, aliases aliasSet) scan {
	var s scan

	for _, loc := range containerTag.FindAllStringIndex(body, -1) {
		tag := body[loc[0]:loc[1]]
		_, attrs := parseTag(tag)
		priority := classPriority(attrs, candidates)
		if priority < 0 {
			continue
		}
		s.containers = append(s.containers, domain.Boundary{
			Tag:      tag,
			Start:    loc[0],
			Priority: priority,
		})
	}
	if len(s.containers) == 0 {
		return s
	}
	for i := range s.containers {
		if i+1 < len(s.containers) {
			s.containers[i].End = s.containers[i+1].Start
		} else {
			s.containers[i].End = len(body)
		}
	}

	for _, loc := range anchorTag.FindAllStringIndex(body, -1) {
		_, attrs := parseTag(body[loc[0]:loc[1]])
		if !isPermalink(attrs) {
			continue
		}
		href, ok := attrValue(attrs, "href")
		if !ok || !aliases.matches(href) {
			continue
		}
		s.anchors++

		offset := loc[0]
		// last container starting before the anchor
		i := sort.Search(len(s.containers), func(i int) bool {
			return s.containers[i].Start >= offset
		}) - 1
		if i >= 0 && s.containers[i].Contains(offset) {
			s.targets = append(s.targets, s.containers[i])
		}
	}
	return s
}
