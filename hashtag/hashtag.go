// Package hashtag extracts #tags from free text and merges them into a
// post's tag collection.
package hashtag

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`#\w+`)

// Extract returns every tag in text in order of appearance. Repeated tags
// are kept; Merge is the step that deduplicates.
func Extract(text string) []string {
	tags := tagPattern.FindAllString(text, -1)
	if tags == nil {
		return []string{}
	}
	return tags
}

// Merge appends the tags of newTags that are not already in existing,
// preserving first-appearance order. existing is never modified in place.
func Merge(existing, newTags []string) []string {
	out := make([]string, 0, len(existing)+len(newTags))
	seen := make(map[string]struct{}, len(existing)+len(newTags))
	for _, t := range existing {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range newTags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Unique drops repeated tags, keeping the first occurrence.
func Unique(tags []string) []string {
	return Merge(nil, tags)
}

// Normalize turns "cats" or " #cats " into "#cats". Case is preserved:
// "#Cats" and "#cats" are different tags.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}

// Contains reports whether tags holds tag exactly, case included.
func Contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
