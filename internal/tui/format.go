package tui

import (
	"strings"
	"time"

	"github.com/hako/durafmt"
)

var units, _ = durafmt.UnitsCoder{PluralSep: ":", UnitsSep: ","}.Decode("y:y,w:w,d:d,h:h,m:m,s:s,ms:ms,us:us")

// relativeTime labels ts against now in the short form "5 m ago".
func relativeTime(now, ts time.Time) string {
	d := now.Sub(ts).Truncate(time.Minute)
	if d < time.Minute {
		return "now"
	}
	return durafmt.ParseShort(d).Format(units) + " ago"
}

// fitString pads or truncates s to width cells.
func fitString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		if width == 1 {
			return "…"
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
