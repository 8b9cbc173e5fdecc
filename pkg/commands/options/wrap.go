package options

import "strings"

func Wrap80(text string) string {
	return Wrap(text, 80)
}

// Wrap breaks text on spaces so no line is longer than width, unless a
// single word is.
func Wrap(text string, width int) string {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(words[0])
	left := width - len(words[0])
	for _, word := range words[1:] {
		if len(word)+1 > left {
			b.WriteString("\n")
			b.WriteString(word)
			left = width - len(word)
			continue
		}
		b.WriteString(" ")
		b.WriteString(word)
		left -= 1 + len(word)
	}
	return b.String()
}
