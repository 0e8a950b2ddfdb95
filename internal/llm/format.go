package llm

import "strings"

// bulletPrefixes are the list-item markers models tend to emit.
var bulletPrefixes = []string{"- ", "* ", "• ", "-", "*", "•"}

// SplitItems turns raw model text into an ordered list of feedback items.
// Lines beginning with a bullet marker start a new item; continuation lines
// are folded into the current item. Text without any markers degrades to a
// single-item list of the trimmed input. Empty input yields nil. This is a
// best-effort transform and never fails on malformed input.
func SplitItems(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var items []string
	var current strings.Builder
	found := false

	flush := func() {
		item := strings.TrimSpace(current.String())
		if item != "" {
			items = append(items, item)
		}
		current.Reset()
	}

	for _, line := range strings.Split(trimmed, "\n") {
		stripped := strings.TrimSpace(line)
		if rest, ok := stripBullet(stripped); ok {
			found = true
			flush()
			current.WriteString(rest)
			continue
		}
		if found && stripped != "" {
			current.WriteString(" ")
			current.WriteString(stripped)
		}
	}
	flush()

	if !found {
		return []string{trimmed}
	}
	return items
}

func stripBullet(line string) (string, bool) {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p)), true
		}
	}
	return "", false
}
