package patcher

import (
	"strings"

	"golang.org/x/net/html"
)

// attr is one attribute of a raw opening tag. Offsets index the tag text.
type attr struct {
	name     string
	nameEnd  int
	value    string
	valStart int
	valEnd   int
	quote    byte
}

// parseTag splits a raw opening tag into its lower-cased name and
// attributes. Values are returned undecoded; use attrValue for the decoded form.
func parseTag(tag string) (string, []attr) {
	n := len(tag)
	i := 1
	for i < n && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	name := strings.ToLower(tag[1:i])

	var attrs []attr
	for i < n {
		for i < n && (isSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= n || tag[i] == '>' {
			break
		}

		nameStart := i
		for i < n && !isSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		if i == nameStart {
			// a lone '=' with no name
			i++
			continue
		}
		a := attr{name: strings.ToLower(tag[nameStart:i]), nameEnd: i, valStart: -1, valEnd: -1}

		j := i
		for j < n && isSpace(tag[j]) {
			j++
		}
		if j < n && tag[j] == '=' {
			j++
			for j < n && isSpace(tag[j]) {
				j++
			}
			switch {
			case j < n && (tag[j] == '"' || tag[j] == '\''):
				a.quote = tag[j]
				a.valStart = j + 1
				end := strings.IndexByte(tag[a.valStart:], a.quote)
				if end < 0 {
					a.valEnd = n
					j = n
				} else {
					a.valEnd = a.valStart + end
					j = a.valEnd + 1
				}
			default:
				a.valStart = j
				for j < n && !isSpace(tag[j]) && tag[j] != '>' {
					j++
				}
				a.valEnd = j
			}
			a.value = tag[a.valStart:a.valEnd]
			i = j
		}
		attrs = append(attrs, a)
	}
	return name, attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// attrValue returns the decoded value of the first attribute called name.
func attrValue(attrs []attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.name == name {
			return html.UnescapeString(a.value), true
		}
	}
	return "", false
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if f == token {
			return true
		}
	}
	return false
}

// classPriority returns the index of the first candidate present as a whole
// token in the tag's class attribute, or -1.
func classPriority(attrs []attr, candidates []string) int {
	class, ok := attrValue(attrs, "class")
	if !ok {
		return -1
	}
	tokens := strings.Fields(class)
	for i, c := range candidates {
		for _, t := range tokens {
			if t == c {
				return i
			}
		}
	}
	return -1
}

// isPermalink reports whether the anchor's itemprop includes "url".
func isPermalink(attrs []attr) bool {
	itemprop, ok := attrValue(attrs, "itemprop")
	return ok && hasToken(itemprop, "url")
}

// hasClass reports whether the tag already carries class.
func hasClass(tag, class string) bool {
	_, attrs := parseTag(tag)
	v, ok := attrValue(attrs, "class")
	return ok && hasToken(v, class)
}

// addClass inserts class as the first token of the tag's class attribute.
// Quoted values get a pure insertion; an unquoted value is rewritten in
// double quotes. Tags without a class attribute are returned unchanged.
func addClass(tag, class string) string {
	_, attrs := parseTag(tag)
	for _, a := range attrs {
		if a.name != "class" {
			continue
		}
		switch {
		case a.valStart < 0:
			return tag[:a.nameEnd] + `="` + class + `"` + tag[a.nameEnd:]
		case a.quote != 0:
			insert := class
			if strings.TrimSpace(a.value) != "" {
				insert += " "
			}
			return tag[:a.valStart] + insert + tag[a.valStart:]
		default:
			return tag[:a.valStart] + `"` + class + " " + a.value + `"` + tag[a.valEnd:]
		}
	}
	return tag
}
