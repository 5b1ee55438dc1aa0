// Package naming holds the resource and logical ID conventions shared by every stack
// in the archive. Physical names carry the environment suffix; logical IDs are PascalCase.
package naming

import (
	"strings"
	"unicode"
)

// Resource builds the physical name for a resource: "<base>-<suffix>".
// An empty suffix returns the base unchanged.
func Resource(base, suffix string) string {
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

// LogicalID joins the given parts into one PascalCase construct ID.
// Parts may themselves be hyphen- or underscore-separated.
func LogicalID(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, word := range strings.FieldsFunc(part, func(r rune) bool {
			return r == '-' || r == '_' || r == ' '
		}) {
			r := []rune(strings.ToLower(word))
			r[0] = unicode.ToUpper(r[0])
			b.WriteString(string(r))
		}
	}
	return b.String()
}

// MergeTags merges tag maps left to right; later maps win on key conflicts.
// The inputs are never mutated.
func MergeTags(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
