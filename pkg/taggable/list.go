package taggable

import "strings"

// ListSeparator joins tag names in TagsList.
const ListSeparator = ", "

// ParseList splits a comma separated tag list, trims every segment and drops
// blanks and repeats. Order of first appearance is kept.
func ParseList(text string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(text, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// JoinList is the inverse of ParseList for already clean names.
func JoinList(names []string) string {
	return strings.Join(names, ListSeparator)
}
