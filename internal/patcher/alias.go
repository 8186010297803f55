package patcher

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

var idPrefix = regexp.MustCompile(`^\d+-`)

// aliasSet matches permalink hrefs against sponsored aliases. An href
// matches when its final path segment is the alias, optionally preceded by
// a numeric id and a dash and optionally followed by ".html". Query,
// fragment and a trailing slash are ignored.
type aliasSet map[string]struct{}

func newAliasSet(aliases []string) aliasSet {
	set := make(aliasSet, len(aliases))
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			set[a] = struct{}{}
		}
	}
	return set
}

func (s aliasSet) matches(href string) bool {
	if len(s) == 0 {
		return false
	}

	segment := finalSegment(href)
	if segment == "" {
		return false
	}
	if s.has(segment) {
		return true
	}
	if unescaped, err := url.PathUnescape(segment); err == nil && unescaped != segment && s.has(unescaped) {
		return true
	}
	return false
}

func (s aliasSet) has(segment string) bool {
	if _, ok := s[segment]; ok {
		return true
	}
	if stripped := idPrefix.ReplaceAllString(segment, ""); stripped != segment {
		_, ok := s[stripped]
		return ok
	}
	return false
}

func finalSegment(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimSuffix(href, "/")
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		href = href[i+1:]
	}
	return strings.TrimSuffix(href, ".html")
}

// mentionedIn reports whether body could hold a permalink to any alias: a
// single pass looks for each alias in its plain and percent-encoded forms.
// Non-ASCII aliases may appear entity-encoded, so their presence is assumed.
func (s aliasSet) mentionedIn(body string) bool {
	needles := make([]string, 0, len(s))
	for alias := range s {
		if !isASCII(alias) {
			return true
		}
		needles = append(needles, alias)
		if escaped := url.PathEscape(alias); escaped != alias {
			needles = append(needles, escaped)
		}
	}
	if len(needles) == 0 {
		return false
	}
	return len(ahocorasick.NewStringMatcher(needles).Match([]byte(body))) > 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
