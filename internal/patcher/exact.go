package patcher

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

type openElement struct {
	name      string
	container int // index into scan.containers, or -1
}

// exactScan walks the token stream, tracking open elements so container
// spans end at their matching close tag. Byte offsets come from summing the
// raw token lengths, which cover the input exactly.
func exactScan(body string, candidates []string, aliases aliasSet) scan {
	var (
		s      scan
		stack  []openElement
		offset int
	)

	closeFrom := func(depth, end int) {
		for _, el := range stack[depth:] {
			if el.container >= 0 {
				s.containers[el.container].End = end
			}
		}
		stack = stack[:depth]
	}

	z := html.NewTokenizer(strings.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF; strings.Reader produces no other error
			break
		}

		raw := string(z.Raw())
		start := offset
		offset += len(raw)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := parseTag(raw)

			if name == "a" && isPermalink(attrs) {
				if href, ok := attrValue(attrs, "href"); ok && aliases.matches(href) {
					s.anchors++
					if target, found := enclosing(stack, s.containers); found {
						s.targets = append(s.targets, target)
					}
				}
			}

			idx := -1
			if name == "div" || name == "article" {
				if priority := classPriority(attrs, candidates); priority >= 0 {
					idx = len(s.containers)
					s.containers = append(s.containers, domain.Boundary{
						Tag:      raw,
						Start:    start,
						End:      offset,
						Priority: priority,
						Depth:    len(stack),
					})
				}
			}

			if tt == html.StartTagToken && !voidElements[name] {
				stack = append(stack, openElement{name: name, container: idx})
			}

		case html.EndTagToken:
			name, _ := parseTag("<" + strings.TrimPrefix(raw, "</"))
			for depth := len(stack) - 1; depth >= 0; depth-- {
				if stack[depth].name != name {
					continue
				}
				// elements left open inside end where this one starts closing
				closeFrom(depth+1, start)
				if c := stack[depth].container; c >= 0 {
					s.containers[c].End = offset
				}
				stack = stack[:depth]
				break
			}
		}
	}

	closeFrom(0, len(body))
	return s
}

// enclosing picks, among the open containers, the one whose class has the
// best priority; ties go to the innermost.
func enclosing(stack []openElement, containers []domain.Boundary) (domain.Boundary, bool) {
	best := -1
	for _, el := range stack {
		if el.container < 0 {
			continue
		}
		if best < 0 || containers[el.container].Priority <= containers[best].Priority {
			best = el.container
		}
	}
	if best < 0 {
		return domain.Boundary{}, false
	}
	return containers[best], true
}
