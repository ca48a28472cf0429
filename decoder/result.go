package decoder

import (
	"fmt"
	"math"
	"strings"
)

// Color is an 8-bit-per-channel RGB color.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// ColorFromUnit scales normalized 0..1 channels to 0..255, rounding to the
// nearest integer and clamping out-of-range input.
func ColorFromUnit(r, g, b float64) Color {
	return Color{R: unitToByte(r), G: unitToByte(g), B: unitToByte(b)}
}

func unitToByte(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

// Hex formats the color as six lowercase hex digits, e.g. "ff0000".
func (c Color) Hex() string { return RGBToHex(c.R, c.G, c.B) }

// RGBToHex packs three 0..255 channels as "%02x%02x%02x".
func RGBToHex(r, g, b int) string {
	return fmt.Sprintf("%02x%02x%02x", r, g, b)
}

// Point is a plot-space coordinate; Y carries the source z value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is a polyline with a marker on every waypoint, in source order.
type Path struct {
	Name      string  `json:"name"`
	Color     Color   `json:"color"`
	Waypoints []Point `json:"waypoints"`
}

// ReachableBox is centered on the midpoint of its X and Z intervals.
type ReachableBox struct {
	CenterX  float64 `json:"centerX"`
	CenterY  float64 `json:"centerY"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"` // radians
	Time     float64 `json:"time"`     // seconds
	Desc     string  `json:"desc"`
}

// Extent returns the axis ranges covered by the unrotated box.
func (b ReachableBox) Extent() (x0, x1, y0, y1 float64) {
	return b.CenterX - b.Width/2, b.CenterX + b.Width/2, b.CenterY - b.Height/2, b.CenterY + b.Height/2
}

// UnsafeBox is anchored at the raw lo value of each axis.
type UnsafeBox struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Time     float64 `json:"time"`
	Desc     string  `json:"desc"`
}

// Trajectory is one decoded action together with its derived boxes.
type Trajectory struct {
	Name      string         `json:"name"`
	PathIndex int            `json:"pathIndex"`
	PathName  string         `json:"pathName"`
	Color     Color          `json:"color"`
	StartTime float64        `json:"startTime"`
	Speed     float64        `json:"speed"`
	Rotation  float64        `json:"rotation"`
	Reachable []ReachableBox `json:"reachable"`
	Unsafe    []UnsafeBox    `json:"unsafe"`
}

// Details holds the HTML fragments for the text panel.
type Details struct {
	Trajectories []string `json:"trajectories"`
	Collisions   string   `json:"collisions"`
}

// Blocks returns the panel blocks in display order: the trajectory summary
// followed by the collision summary. The collision block may be empty.
func (d Details) Blocks() []string {
	return []string{strings.Join(d.Trajectories, ""), d.Collisions}
}

// Result is everything one document yields, ready to be drawn.
type Result struct {
	Paths        []Path       `json:"paths"`
	Trajectories []Trajectory `json:"trajectories"`
	Details      Details      `json:"details"`
}

// UnsafeCount is the number of unsafe boxes over all trajectories.
func (r *Result) UnsafeCount() int {
	n := 0
	for _, t := range r.Trajectories {
		n += len(t.Unsafe)
	}
	return n
}
