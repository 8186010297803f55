// Package classifier maps a site template to the CSS classes that mark its
// article teaser containers.
package classifier

import "strings"

// Template types with a known container mapping.
const (
	TemplateAuto          = "auto"
	TemplateCustom        = "custom"
	TemplateCassiopeia    = "cassiopeia"
	TemplateTCK           = "tck"
	TemplateHelixUltimate = "helix_ultimate"
	TemplateYootheme      = "yootheme"
	TemplateAstroid       = "astroid"
	TemplateProtostar     = "protostar"
)

var templateClasses = map[string][]string{
	TemplateCassiopeia:    {"blog-item"},
	TemplateTCK:           {"tck-article", "tck-blog-item"},
	TemplateHelixUltimate: {"article-list-item", "article"},
	TemplateYootheme:      {"uk-article"},
	TemplateAstroid:       {"astroid-article"},
	TemplateProtostar:     {"item"},
}

// autoClasses is checked in order: theme-specific names before generic ones.
var autoClasses = []string{
	"tck-article",
	"tck-blog-item",
	"blog-item",
	"uk-article",
	"astroid-article",
	"article-list-item",
	"item-page",
	"item",
	"article",
}

// Candidates returns the ordered container classes for templateType.
// Unknown types, and custom with an empty class, fall back to the auto list.
// The returned slice is a fresh copy.
func Candidates(templateType, customClass string) []string {
	templateType = strings.ToLower(strings.TrimSpace(templateType))

	if templateType == TemplateCustom {
		if class := strings.TrimSpace(customClass); class != "" {
			return []string{class}
		}
		return AutoCandidates()
	}
	if classes, ok := templateClasses[templateType]; ok {
		return append([]string(nil), classes...)
	}
	return AutoCandidates()
}

// AutoCandidates returns the fallback priority list.
func AutoCandidates() []string {
	return append([]string(nil), autoClasses...)
}

// Templates returns the template types with a fixed mapping.
func Templates() []string {
	return []string{
		TemplateCassiopeia,
		TemplateTCK,
		TemplateHelixUltimate,
		TemplateYootheme,
		TemplateAstroid,
		TemplateProtostar,
	}
}

// ForClass returns the template types whose mapping includes class.
func ForClass(class string) []string {
	var out []string
	for _, tmpl := range Templates() {
		for _, c := range templateClasses[tmpl] {
			if c == class {
				out = append(out, tmpl)
				break
			}
		}
	}
	return out
}
