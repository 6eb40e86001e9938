package browser

import (
	"strings"
)

// NormalizeSelector rewrites an action selector into the engine form used by
// the playwright surface. Selectors starting with "/" are XPath expressions,
// everything else is treated as CSS.
func NormalizeSelector(selector string) string {
	if IsXPath(selector) {
		return "xpath=" + selector
	}
	return selector
}

func IsXPath(selector string) bool {
	return strings.HasPrefix(selector, "/")
}
