package chat

import (
	"fmt"
	"sort"
	"strings"
)

// unknownSource stands in for context items that carry no source.
const unknownSource = "Unknown"

// FormatSources renders a deduplicated set of source identifiers as a
// numbered citation block. The set is sorted before numbering so the
// output is stable regardless of iteration order. An empty set renders
// as the empty string.
func FormatSources(sources map[string]struct{}) string {
	if len(sources) == 0 {
		return ""
	}

	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("sources:")
	for i, id := range ids {
		fmt.Fprintf(&b, "\n%d. %s", i+1, id)
	}
	return b.String()
}

// collectSources derives the deduplicated source set from backend
// context items, substituting a sentinel for items without a source.
// A source that is present but empty stays empty; only a missing one
// becomes the sentinel. A document cited twice appears once in the
// citation block.
func collectSources(items []ContextItem) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		src := unknownSource
		if item.Source != nil {
			src = *item.Source
		}
		set[src] = struct{}{}
	}
	return set
}
