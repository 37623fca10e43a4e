// Package text lays out short runs of text inside rectangular regions.
//
// Layout happens in two steps. [Wrap] breaks a string into lines by a
// character budget, independent of any font. [Place] then measures each
// line with a font face and computes its baseline position for a region
// and a pair of anchors. [Cap] limits how many lines are kept.
package text

import (
	"strings"
	"unicode/utf8"
)

// Wrap breaks s into lines of at most maxLineChars characters.
//
// Words are separated by whitespace and added greedily: a word joins the
// current line when the line, one space and the word fit the budget.
// A word longer than the budget is placed on its own line unbroken.
// A string no longer than the budget is returned as a single line
// unchanged. The empty string yields no lines; a longer string holding only
// whitespace yields one blank line. A non-positive budget disables wrapping.
//
// Lengths are counted in runes.
func Wrap(s string, maxLineChars int) []string {
	if s == "" {
		return nil
	}
	if maxLineChars <= 0 || utf8.RuneCountInString(s) <= maxLineChars {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines   []string
		line    strings.Builder
		lineLen int
	)
	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		switch {
		case lineLen == 0:
			line.WriteString(w)
			lineLen = wl
		case lineLen+1+wl <= maxLineChars:
			line.WriteByte(' ')
			line.WriteString(w)
			lineLen += 1 + wl
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(w)
			lineLen = wl
		}
	}
	if lineLen > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// Cap returns at most n lines. A non-positive n keeps all lines.
func Cap(lines []string, n int) []string {
	if n > 0 && len(lines) > n {
		return lines[:n]
	}
	return lines
}
