package actions

import (
	"regexp"
	"strings"
)

var (
	kebabBoundary  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	kebabLowerUp   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	kebabCollapser = regexp.MustCompile(`-+`)
	nameSplitter   = regexp.MustCompile(`[-_]`)
)

// ToKebab converts camelCase or snake_case names to kebab-case. Runs of
// dashes collapse to one and the result is lowercased.
func ToKebab(name string) string {
	s := kebabBoundary.ReplaceAllString(name, "$1-$2")
	s = kebabLowerUp.ReplaceAllString(s, "$1-$2")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(kebabCollapser.ReplaceAllString(s, "-"))
}

// ToCamel converts kebab-case or snake_case names to camelCase.
func ToCamel(name string) string {
	parts := nameSplitter.Split(name, -1)
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}
