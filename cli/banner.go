// Package cli holds terminal helpers for transitionctl.
package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	ellipsis       = "…"

	bannerPadding = 2
)

// DefaultWidth is the banner width used when none is given.
const DefaultWidth = 60

// Banner draws s, one line per line of s, centered in a box width columns
// wide. Lines that do not fit are truncated with an ellipsis.
func Banner(s string, width int) string {
	if width <= bannerPadding {
		return ""
	}

	inner := width - bannerPadding
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	parts := make([]string, 0, len(lines)+2)
	parts = append(parts, boxTopLeft+strings.Repeat(boxTop, inner)+boxTopRight)

	for _, line := range lines {
		parts = append(parts, boxSide+center(line, inner)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n")
}

// StateBanner renders the current state of a machine.
func StateBanner(machine, state string) string {
	return Banner(fmt.Sprintf("%s\nstate: %s", machine, state), DefaultWidth)
}

func center(text string, width int) string {
	length := utf8.RuneCountInString(text)

	if length > width {
		runes := []rune(text)
		text = string(runes[:width-1]) + ellipsis
		length = width
	}

	left := (width - length) / 2 //nolint:mnd

	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-length-left)
}
