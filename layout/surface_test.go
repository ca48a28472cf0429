package layout

import (
	"math"
	"testing"

	"github.com/ByLCY/reachplot/dsl"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := Build(dsl.Default(), BuildOptions{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return s
}

func addRect(t *testing.T, s *Surface, slot int, legend string, angle float64) {
	t.Helper()
	s.Source(slot).AddBox(0, 0, 4, 2, legend+" box")
	if _, err := s.AddLayer(Layer{Glyph: GlyphRect, Source: slot, Legend: legend, Alpha: 0.3, Angle: angle}); err != nil {
		t.Fatalf("add layer failed: %v", err)
	}
}

func TestSourceSlotsAreReused(t *testing.T) {
	s := newTestSurface(t)
	first := s.Source(2)
	if len(s.Sources()) != 3 {
		t.Fatalf("expected pool of 3, got %d", len(s.Sources()))
	}
	first.AddPoint(1, 2, "p")
	s.Reset()
	if s.Source(2) != first {
		t.Fatalf("reset must keep source identity")
	}
	if first.Len() != 0 || len(first.Desc) != 0 {
		t.Fatalf("reset must empty sources, got %+v", first)
	}
	if len(s.Sources()) != 3 {
		t.Fatalf("reset must not shrink the pool")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	s := newTestSurface(t)
	addRect(t, s, 0, "Unsafe Region", 0)
	s.AppendText("summary")
	s.SetError("Error loading file: boom")
	s.Reset()
	s.Reset()
	if len(s.Layers()) != 0 || len(s.Blocks()) != 0 || s.Error() != "" || !s.Empty() {
		t.Fatalf("surface not cleared: layers=%d blocks=%d err=%q", len(s.Layers()), len(s.Blocks()), s.Error())
	}
}

func TestAddLayerRejectsUnknownSource(t *testing.T) {
	s := newTestSurface(t)
	if _, err := s.AddLayer(Layer{Source: 0}); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestLegendToggle(t *testing.T) {
	s := newTestSurface(t)
	addRect(t, s, 0, "Unsafe Region", 0)
	addRect(t, s, 1, "Reachable Intervals for trajectory car1", 0)
	addRect(t, s, 2, "Unsafe Region", 0)

	items := s.Legend()
	if len(items) != 2 || items[0].Label != "Unsafe Region" {
		t.Fatalf("legend must list unique labels in order, got %+v", items)
	}

	visible, err := s.ToggleLegend("Unsafe Region")
	if err != nil || visible {
		t.Fatalf("expected hidden after toggle, got %v %v", visible, err)
	}
	for _, l := range s.Layers() {
		if l.Legend == "Unsafe Region" && l.Visible {
			t.Fatalf("all layers sharing a label must be hidden")
		}
	}
	if s.Legend()[0].Visible {
		t.Fatalf("legend item must report hidden state")
	}
	if tip := s.Hover(0, 0); len(tip) != 2 || tip[1] != "Path: Reachable Intervals for trajectory car1 box" {
		t.Fatalf("hidden layers must not be hovered, got %v", tip)
	}
	if visible, _ := s.ToggleLegend("Unsafe Region"); !visible {
		t.Fatalf("second toggle must show the layers again")
	}
	if _, err := s.ToggleLegend("missing"); err == nil {
		t.Fatalf("expected error for unknown label")
	}
}

func TestHoverRect(t *testing.T) {
	s := newTestSurface(t)
	addRect(t, s, 0, "Reachable", 0)

	lines := s.Hover(1.5, 0.5)
	if len(lines) != 2 {
		t.Fatalf("expected a hit, got %v", lines)
	}
	if lines[0] != "(x,y): (1.50, 0.50)" || lines[1] != "Path: Reachable box" {
		t.Fatalf("unexpected tooltip: %v", lines)
	}
	if lines := s.Hover(3, 0); lines != nil {
		t.Fatalf("expected miss outside the box, got %v", lines)
	}
	if lines := s.Hover(0, 1.8); lines != nil {
		t.Fatalf("expected miss above the unrotated box, got %v", lines)
	}
}

func TestHoverRotatedRect(t *testing.T) {
	s := newTestSurface(t)
	addRect(t, s, 0, "Reachable", math.Pi/2)

	if lines := s.Hover(0, 1.8); lines == nil {
		t.Fatalf("rotated box must cover (0, 1.8)")
	}
	if lines := s.Hover(1.5, 0); lines != nil {
		t.Fatalf("rotated box must not cover (1.5, 0), got %v", lines)
	}
}

func TestHoverMarkersAndLines(t *testing.T) {
	s := newTestSurface(t)
	path := s.Source(0)
	path.AddPoint(0, 0, "A")
	path.AddPoint(10, 0, "A")
	if _, err := s.AddLayer(Layer{Glyph: GlyphLine, Source: 0, Legend: "Path: A", Size: 1}); err != nil {
		t.Fatal(err)
	}
	wp := s.Source(1)
	wp.AddPoint(20, 10, "A")
	if _, err := s.AddLayer(Layer{Glyph: GlyphCircle, Source: 1, Legend: "Waypoints of A", Size: 8}); err != nil {
		t.Fatal(err)
	}

	tip, ok := s.HitTest(20.2, 10)
	if !ok || tip.Legend != "Waypoints of A" {
		t.Fatalf("expected waypoint hit, got %+v %v", tip, ok)
	}
	if _, ok := s.HitTest(21, 10); ok {
		t.Fatalf("point outside marker radius must miss")
	}
	tip, ok = s.HitTest(5, 0.1)
	if !ok || tip.Legend != "Path: A" {
		t.Fatalf("expected line hit, got %+v %v", tip, ok)
	}
	if _, ok := s.HitTest(5, 2); ok {
		t.Fatalf("point far from the line must miss")
	}
}

func TestSetViewClampsToBounds(t *testing.T) {
	s := newTestSurface(t)
	v := s.SetView(-100, 100, 10, 0)
	if v.X != s.Frame.XRange {
		t.Fatalf("zoom out beyond bounds must clamp, got %v", v.X)
	}
	if v.Y != (Range{Min: 0, Max: 10}) {
		t.Fatalf("reversed range must be normalised, got %v", v.Y)
	}
	v = s.SetView(50, 70, -40, -30)
	if v.X != (Range{Min: 42, Max: 62}) || v.Y != (Range{Min: -35, Max: -25}) {
		t.Fatalf("pan must keep span inside bounds, got %+v", v)
	}
	if s.ResetView() != (View{X: s.Frame.XRange, Y: s.Frame.YRange}) {
		t.Fatalf("reset view must restore bounds")
	}
}

func TestExtent(t *testing.T) {
	s := newTestSurface(t)
	if _, _, ok := s.Extent(); ok {
		t.Fatalf("empty surface has no extent")
	}
	addRect(t, s, 0, "Reachable", 0)
	s.Source(1).AddPoint(30, -5, "A")
	if _, err := s.AddLayer(Layer{Glyph: GlyphCircle, Source: 1, Legend: "Waypoints of A", Size: 8}); err != nil {
		t.Fatal(err)
	}
	x, y, ok := s.Extent()
	if !ok {
		t.Fatalf("expected extent")
	}
	if math.Abs(x.Min+2) > 1e-9 || math.Abs(x.Max-30) > 1e-9 || math.Abs(y.Min+5) > 1e-9 || math.Abs(y.Max-1) > 1e-9 {
		t.Fatalf("unexpected extent: %v %v", x, y)
	}
	if !s.InBounds() {
		t.Fatalf("geometry lies inside the bounds")
	}
	s.Source(1).AddPoint(80, 0, "A")
	if s.InBounds() {
		t.Fatalf("point at x=80 leaves the bounds")
	}
}

func TestNonFiniteGeometryIsSkipped(t *testing.T) {
	s := newTestSurface(t)
	markers := s.Source(0)
	markers.AddPoint(math.NaN(), 0, "bad")
	markers.AddPoint(5, 5, "good")
	if _, err := s.AddLayer(Layer{Glyph: GlyphCircle, Source: 0, Legend: "Waypoints of A", Size: 8}); err != nil {
		t.Fatal(err)
	}
	s.Source(1).AddBox(math.Inf(1), 0, 4, 2, "bad box")
	if _, err := s.AddLayer(Layer{Glyph: GlyphRect, Source: 1, Legend: "Reachable", Angle: 0.3}); err != nil {
		t.Fatal(err)
	}

	tip, ok := s.HitTest(5, 5)
	if !ok || tip.Lines[1] != "Path: good" {
		t.Fatalf("finite marker must still be hit, got %+v %v", tip, ok)
	}
	if _, ok := s.HitTest(math.NaN(), 0); ok {
		t.Fatalf("non-finite cursor must not hit anything")
	}
	x, y, ok := s.Extent()
	if !ok || x != (Range{Min: 5, Max: 5}) || y != (Range{Min: 5, Max: 5}) {
		t.Fatalf("extent must ignore non-finite coordinates, got %v %v %v", x, y, ok)
	}
}
