package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// chip is one pre-rendered board cell with its display width.
type chip struct {
	s     string
	width int
}

// wrapChips lays chips out in rows no wider than width, separated by gap spaces.
func wrapChips(chips []chip, width, gap int) string {
	if len(chips) == 0 {
		return ""
	}
	sep := strings.Repeat(" ", gap)
	var out strings.Builder
	var line strings.Builder
	lineWidth := 0
	for _, c := range chips {
		if lineWidth > 0 && width > 0 && lineWidth+gap+c.width > width {
			out.WriteString(line.String())
			out.WriteByte('\n')
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString(sep)
			lineWidth += gap
		}
		line.WriteString(c.s)
		lineWidth += c.width
	}
	out.WriteString(line.String())
	return out.String()
}

// wrapWords breaks plain text at spaces so no line exceeds width cells.
// Words wider than width are split.
func wrapWords(text string, width int) string {
	if width <= 0 {
		return text
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineWidth = 0
	}
	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		for w > width {
			if lineWidth > 0 {
				flush()
			}
			head := runewidth.Truncate(word, width, "")
			lines = append(lines, head)
			word = strings.TrimPrefix(word, head)
			w = runewidth.StringWidth(word)
		}
		if w == 0 {
			continue
		}
		if lineWidth > 0 && lineWidth+1+w > width {
			flush()
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if lineWidth > 0 {
		flush()
	}
	return strings.Join(lines, "\n")
}

func reverseRunes(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
