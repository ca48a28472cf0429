package layout

import (
	"strings"
	"testing"

	"github.com/ByLCY/reachplot/dsl"
)

func TestBuildDefaultFigure(t *testing.T) {
	s, err := Build(dsl.Default(), BuildOptions{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	f := s.Frame
	if f.Title != "Vista Reachability Analysis" || f.Width != 1200 || f.Height != 700 {
		t.Fatalf("unexpected frame header: %+v", f)
	}
	if f.XRange != (Range{Min: -62, Max: 62}) || f.YRange != (Range{Min: -35, Max: 35}) {
		t.Fatalf("unexpected bounds: %v %v", f.XRange, f.YRange)
	}
	if f.Background.Hex() != "#252e38" || f.Outline.Hex() != "#41454a" {
		t.Fatalf("unexpected colors: %s %s", f.Background.Hex(), f.Outline.Hex())
	}
	if f.Legend.Location != "top_left" || f.Legend.ClickPolicy != "hide" {
		t.Fatalf("unexpected legend options: %+v", f.Legend)
	}
	if len(f.Tooltip) != 2 || f.Tooltip[0].Label != "(x,y)" || f.Tooltip[1].Template != "${desc}" {
		t.Fatalf("unexpected tooltip: %+v", f.Tooltip)
	}
	if f.Panel.Empty != "No File Selected" || f.Panel.Width != 400 {
		t.Fatalf("unexpected panel: %+v", f.Panel)
	}
	if s.View() != (View{X: f.XRange, Y: f.YRange}) {
		t.Fatalf("initial view must equal bounds, got %+v", s.View())
	}
	if !s.Empty() {
		t.Fatalf("fresh surface must be empty")
	}
}

func TestBuildCustomFigure(t *testing.T) {
	doc, err := dsl.ParseString(`figure Test v1 {
  title: "Demo"
  size: [800, 400]
  x-range: [0, 100]
  background: #abc
  unsafe-color: #ff000080
  image "built-in:map" { x: 0; y: 50; w: 100; h: 50; opacity: 0.5 }
  tooltip {
    where: "${x:%.1f}"
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	s, err := Build(doc, BuildOptions{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	f := s.Frame
	if f.Width != 800 || f.XRange.Max != 100 || f.YRange.Max != 35 {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if f.Background.Hex() != "#aabbcc" || f.UnsafeColor.Hex() != "#ff0000" {
		t.Fatalf("unexpected colors: %s %s", f.Background.Hex(), f.UnsafeColor.Hex())
	}
	if f.Image == nil || f.Image.Src != "built-in:map" || f.Image.W != 100 || f.Image.Opacity != 0.5 {
		t.Fatalf("unexpected image: %+v", f.Image)
	}
	if len(f.Tooltip) != 1 || f.Tooltip[0].Label != "where" {
		t.Fatalf("declared tooltip must replace the default: %+v", f.Tooltip)
	}
}

func TestBuildImageOverride(t *testing.T) {
	s, err := Build(dsl.Default(), BuildOptions{Image: "map.png"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	img := s.Frame.Image
	if img == nil || img.Src != "map.png" {
		t.Fatalf("image override ignored: %+v", img)
	}
	if img.X != -62 || img.Y != 35 || img.W != 124 || img.H != 70 {
		t.Fatalf("override must cover the bounds, got %+v", img)
	}
}

func TestBuildRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"size":  `figure T v1 { size: [1] }`,
		"color": `figure T v1 { background: red }`,
		"range": `figure T v1 { x-range: [5, 5] }`,
		"image": `figure T v1 { image "a.png" { x: 0; y: 0 } }`,
	}
	for name, src := range cases {
		doc, err := dsl.ParseString(src)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", name, err)
		}
		if _, err := Build(doc, BuildOptions{}); err == nil {
			t.Fatalf("%s: expected build error", name)
		}
	}
	if _, err := Build(nil, BuildOptions{}); err == nil || !strings.Contains(err.Error(), "为空") {
		t.Fatalf("nil document must be rejected, got %v", err)
	}
}
