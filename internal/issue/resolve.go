package issue

import (
	"strconv"
	"strings"
)

// Resolve returns the issue at the 1-based position in view.
//
// Positions are only meaningful for the view they were computed from, so
// callers must resolve against a fresh Find immediately before mutating.
func Resolve(view []Issue, position int) (Issue, error) {
	if position < 1 || position > len(view) {
		return Issue{}, ErrOutOfRange
	}

	return view[position-1], nil
}

// Markers prefixed to rendered lines.
const (
	MarkerDone = "✅"
	MarkerOpen = "\U0001F4CC"
)

// FormatList renders view as numbered lines, positions starting at 1.
// An empty view renders as the empty string.
func FormatList(view []Issue) string {
	var b strings.Builder

	for i := range view {
		if i > 0 {
			b.WriteString("\n")
		}

		marker := MarkerOpen
		if view[i].Done {
			marker = MarkerDone
		}

		b.WriteString(marker)
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(view[i].Text)
		b.WriteString(" @")
		b.WriteString(view[i].Assignee)
	}

	return b.String()
}
