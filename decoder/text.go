package decoder

import (
	"html"
	"math"
	"strconv"
	"strings"
)

const collisionHeader = "<b>Possible collisions in range:</b><br>"

// formatNumber rounds to two decimals and always keeps a fractional part,
// so 1 prints as "1.0" and 1.25 as "1.25".
func formatNumber(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// minutes converts seconds into the scale shown to users.
func minutes(seconds float64) string { return formatNumber(seconds / 60) }

func rangeText(x0, x1, y0, y1 float64) string {
	return "X[" + formatNumber(x0) + ".." + formatNumber(x1) + "],Y[" + formatNumber(y0) + ".." + formatNumber(y1) + "]"
}

func trajectoryText(t Trajectory) string {
	first := t.Reachable[0]
	last := t.Reachable[len(t.Reachable)-1]

	var b strings.Builder
	b.WriteString("<br><b>Trajectory: </b>")
	b.WriteString(html.EscapeString(t.Name))
	b.WriteString("<br><i>Path name: </i>")
	b.WriteString(html.EscapeString(t.PathName))
	b.WriteString("<br><i>start time: </i>")
	b.WriteString(minutes(t.StartTime))
	b.WriteString("sec, speed: ")
	b.WriteString(formatNumber(t.Speed))
	b.WriteString("km/h <br><i>starting position range: </i>")
	b.WriteString(rangeText(first.Extent()))
	b.WriteString("<br><i>ending position range: </i>")
	b.WriteString(rangeText(last.Extent()))
	b.WriteString(" <br>")
	return b.String()
}

func collisionLine(u UnsafeBox) string {
	return rangeText(u.X, u.X+u.Width, u.Y, u.Y+u.Height) + ", at time " + minutes(u.Time) + "sec <br>"
}

func reachableDesc(pathName string, seconds float64) string {
	return pathName + " | Reachable Set interval at time: " + minutes(seconds) + "sec"
}

func unsafeDesc(pathName string, seconds float64) string {
	return pathName + " | Unsafe Set at time: " + minutes(seconds) + "sec"
}
