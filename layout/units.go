package layout

import "math"

// This file maps data coordinates onto canvas units and back.

const (
	titleBand   = 30.0 // 标题区域高度
	plotPadding = 10.0 // 绘图区四周留白
)

// View is the visible data window. It never exceeds the frame bounds.
type View struct {
	X Range `json:"x"`
	Y Range `json:"y"`
}

// Rect is a canvas-space rectangle with its origin at the bottom-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PlotArea returns the canvas rectangle the data view is mapped onto.
func (f Frame) PlotArea() Rect {
	top := titleBand
	if f.Title == "" {
		top = plotPadding
	}
	return Rect{
		X: plotPadding,
		Y: plotPadding,
		W: math.Max(f.Width-2*plotPadding, 1),
		H: math.Max(f.Height-plotPadding-top, 1),
	}
}

// Transform converts between data space and canvas space for one view.
type Transform struct {
	view View
	area Rect
}

// NewTransform builds the transform for frame f showing view v.
func NewTransform(f Frame, v View) Transform {
	return Transform{view: v, area: f.PlotArea()}
}

// Area returns the plot rectangle in canvas units.
func (t Transform) Area() Rect { return t.area }

// ScaleX is the number of canvas units per data unit along X.
func (t Transform) ScaleX() float64 { return t.area.W / t.view.X.Span() }

// ScaleY is the number of canvas units per data unit along Y.
func (t Transform) ScaleY() float64 { return t.area.H / t.view.Y.Span() }

// ToCanvas maps a data coordinate to canvas units.
func (t Transform) ToCanvas(x, y float64) (float64, float64) {
	return t.area.X + (x-t.view.X.Min)*t.ScaleX(), t.area.Y + (y-t.view.Y.Min)*t.ScaleY()
}

// ToData maps a canvas coordinate back to data space.
func (t Transform) ToData(cx, cy float64) (float64, float64) {
	return t.view.X.Min + (cx-t.area.X)/t.ScaleX(), t.view.Y.Min + (cy-t.area.Y)/t.ScaleY()
}

// PixelsToData converts a canvas length into data units along X.
func (t Transform) PixelsToData(px float64) float64 { return px / t.ScaleX() }

// BoxCorners returns the four canvas-space corners of a w×h data-space box
// centered on (x, y), rotated by angle radians counter-clockwise on screen.
func (t Transform) BoxCorners(x, y, w, h, angle float64) [4][2]float64 {
	cx, cy := t.ToCanvas(x, y)
	hw, hh := w*t.ScaleX()/2, h*t.ScaleY()/2
	sin, cos := math.Sincos(angle)
	offsets := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	var out [4][2]float64
	for i, o := range offsets {
		out[i] = [2]float64{cx + o[0]*cos - o[1]*sin, cy + o[0]*sin + o[1]*cos}
	}
	return out
}

// clampRange fits want inside bounds, keeping its span when possible.
func clampRange(want, bounds Range) Range {
	if want.Max < want.Min {
		want.Min, want.Max = want.Max, want.Min
	}
	span := want.Span()
	if span <= 0 || span >= bounds.Span() {
		return bounds
	}
	if want.Min < bounds.Min {
		want = Range{Min: bounds.Min, Max: bounds.Min + span}
	}
	if want.Max > bounds.Max {
		want = Range{Min: bounds.Max - span, Max: bounds.Max}
	}
	return want
}
