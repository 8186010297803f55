package patcher

import (
	"fmt"
	"regexp"
)

// StyleID identifies the injected style element.
const StyleID = "cs-sponsored-articles"

var (
	headClose = regexp.MustCompile(`(?i)</head\s*>`)
	ownStyle  = regexp.MustCompile(`(?i)<style\b[^>]*\sid\s*=\s*["']?` + regexp.QuoteMeta(StyleID) + `["'\s/>]`)
)

// stylesheet colours marked containers and hides the sponsor field's own
// label and value output.
func stylesheet(markerClass, fieldName, background string) string {
	return fmt.Sprintf(`<style id="%[1]s">`+
		`.%[2]s{background-color:%[4]s;}`+
		`.field-entry.%[3]s,.field-entry.%[3]s .field-label,.field-entry.%[3]s .field-value{display:none!important;}`+
		`</style>`,
		StyleID, markerClass, fieldName, background)
}

// injectStyle inserts style before the first </head>. It reports false when
// there is no head close tag or the head already holds a style element with
// StyleID. The id appearing anywhere else does not count.
func injectStyle(body, style string) (string, bool) {
	loc := headClose.FindStringIndex(body)
	if loc == nil {
		return body, false
	}
	if ownStyle.MatchString(body[:loc[0]]) {
		return body, false
	}
	return body[:loc[0]] + style + body[loc[0]:], true
}
