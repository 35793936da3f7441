package utils

import "strings"

// MakeTitle derives a conversation title from the first message's content:
// the first six words, with "..." appended when the content is longer.
func MakeTitle(content string) string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= 6 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:6], " ") + "..."
}
