package layout

import (
	"fmt"
	"math"

	"github.com/ByLCY/reachplot/binding"
	geom "github.com/peterstace/simplefeatures/geom"
)

// lineTolerance 是悬停命中折线时允许的像素距离。
const lineTolerance = 3.0

// Surface 是一次会话中唯一的绘图面。数据源按槽位复用，图层与面板文本随每次加载重建。
type Surface struct {
	Frame Frame

	view    View
	sources []*Source
	layers  []Layer
	blocks  []string
	errText string
	debug   DebugOptions
}

// NewSurface 创建一个初始视图等于坐标边界的空绘图面。
func NewSurface(f Frame, debug DebugOptions) *Surface {
	return &Surface{
		Frame: f,
		view:  View{X: f.XRange, Y: f.YRange},
		debug: debug,
	}
}

// Reset 清空所有数据源、图层、面板文本与错误状态，数据源对象本身保留。
func (s *Surface) Reset() {
	for _, src := range s.sources {
		src.Clear()
	}
	s.layers = s.layers[:0]
	s.blocks = s.blocks[:0]
	s.errText = ""
}

// Source 返回指定槽位的数据源，槽位不足时才新建。
func (s *Surface) Source(slot int) *Source {
	for len(s.sources) <= slot {
		s.sources = append(s.sources, &Source{})
	}
	return s.sources[slot]
}

// Sources 返回数据源池中的全部数据源（包括空的）。
func (s *Surface) Sources() []*Source { return s.sources }

// AddLayer 追加一个图层，返回其序号。
func (s *Surface) AddLayer(l Layer) (int, error) {
	if l.Source < 0 || l.Source >= len(s.sources) {
		return 0, fmt.Errorf("图层 %q 引用了不存在的数据源 %d", l.Legend, l.Source)
	}
	l.Visible = true
	// 同名图例共享可见性
	for _, existing := range s.layers {
		if existing.Legend == l.Legend {
			l.Visible = existing.Visible
			break
		}
	}
	s.layers = append(s.layers, l)
	return len(s.layers) - 1, nil
}

// Layers 返回按绘制顺序排列的图层。
func (s *Surface) Layers() []Layer { return s.layers }

// AppendText 向面板追加一段文本。
func (s *Surface) AppendText(block string) { s.blocks = append(s.blocks, block) }

// Blocks 返回面板中的文本块。
func (s *Surface) Blocks() []string { return s.blocks }

// SetError 将面板置为错误状态。
func (s *Surface) SetError(msg string) { s.errText = msg }

// Error 返回当前错误文本，空串表示正常。
func (s *Surface) Error() string { return s.errText }

// Empty 表示面板尚无内容可显示。
func (s *Surface) Empty() bool { return len(s.blocks) == 0 && s.errText == "" }

// Legend 返回去重后的图例条目，顺序与图层首次出现的顺序一致。
func (s *Surface) Legend() []LegendItem {
	var items []LegendItem
	seen := make(map[string]bool)
	for _, l := range s.layers {
		if l.Legend == "" || seen[l.Legend] {
			continue
		}
		seen[l.Legend] = true
		items = append(items, LegendItem{
			Label:   l.Legend,
			Glyph:   l.Glyph,
			Color:   l.Fill,
			Alpha:   l.Alpha,
			Visible: l.Visible,
		})
	}
	return items
}

// ToggleLegend 切换某个图例下所有图层的可见性，返回切换后的状态。
func (s *Surface) ToggleLegend(label string) (bool, error) {
	if s.Frame.Legend.ClickPolicy != "hide" {
		return false, fmt.Errorf("图例点击策略 %q 不支持切换", s.Frame.Legend.ClickPolicy)
	}
	found := false
	visible := false
	for i := range s.layers {
		if s.layers[i].Legend != label {
			continue
		}
		if !found {
			visible = !s.layers[i].Visible
			found = true
		}
		s.layers[i].Visible = visible
	}
	if !found {
		return false, fmt.Errorf("图例 %q 不存在", label)
	}
	return visible, nil
}

// HitTest 返回数据坐标 (x, y) 处最上层可见图形的提示信息。
func (s *Surface) HitTest(x, y float64) (Tooltip, bool) {
	t := s.Transform()
	p, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}, Type: geom.DimXY})
	if err != nil {
		return Tooltip{}, false
	}
	pt := p.AsGeometry()
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if !l.Visible {
			continue
		}
		src := s.sources[l.Source]
		row, ok := hitRow(l, src, pt, t)
		if !ok {
			continue
		}
		data := map[string]any{
			"x":     x,
			"y":     y,
			"desc":  src.Desc[row],
			"layer": l.Legend,
		}
		return Tooltip{Legend: l.Legend, Lines: binding.Render(s.Frame.Tooltip, data)}, true
	}
	return Tooltip{}, false
}

// Hover 返回 (x, y) 处的提示行，未命中时为空。
func (s *Surface) Hover(x, y float64) []string {
	tip, ok := s.HitTest(x, y)
	if !ok {
		return nil
	}
	return tip.Lines
}

func hitRow(l Layer, src *Source, pt geom.Geometry, t Transform) (int, bool) {
	switch l.Glyph {
	case GlyphRect:
		if !src.HasBoxes() {
			return 0, false
		}
		for row := src.Len() - 1; row >= 0; row-- {
			poly, err := rectPolygon(src.X[row], src.Y[row], src.W[row], src.H[row], l.Angle, t)
			if err != nil {
				continue
			}
			if geom.Intersects(poly, pt) {
				return row, true
			}
		}
	case GlyphCircle:
		radius := t.PixelsToData(l.Size / 2)
		for row := src.Len() - 1; row >= 0; row-- {
			c, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: src.X[row], Y: src.Y[row]}, Type: geom.DimXY})
			if err != nil {
				continue
			}
			if d, ok := geom.Distance(c.AsGeometry(), pt); ok && d <= radius {
				return row, true
			}
		}
	case GlyphLine:
		if src.Len() < 2 {
			return 0, false
		}
		tol := t.PixelsToData(math.Max(l.Size, lineTolerance))
		for row := 0; row+1 < src.Len(); row++ {
			seg, err := geom.NewLineString(geom.NewSequence([]float64{
				src.X[row], src.Y[row], src.X[row+1], src.Y[row+1],
			}, geom.DimXY))
			if err != nil {
				continue
			}
			if d, ok := geom.Distance(seg.AsGeometry(), pt); ok && d <= tol {
				return row, true
			}
		}
	}
	return 0, false
}

// rectPolygon 返回数据坐标下的旋转矩形。旋转在画布空间进行，因此先转换到画布再换回数据坐标。
func rectPolygon(x, y, w, h, angle float64, t Transform) (geom.Geometry, error) {
	corners := t.BoxCorners(x, y, w, h, angle)
	flat := make([]float64, 0, 10)
	for _, c := range corners {
		dx, dy := t.ToData(c[0], c[1])
		flat = append(flat, dx, dy)
	}
	flat = append(flat, flat[0], flat[1])
	ring, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.Geometry{}, err
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Geometry{}, err
	}
	return poly.AsGeometry(), nil
}

// View 返回当前可见窗口。
func (s *Surface) View() View { return s.view }

// SetView 平移或缩放到指定窗口，窗口会被限制在坐标边界之内。
func (s *Surface) SetView(x0, x1, y0, y1 float64) View {
	s.view = View{
		X: clampRange(Range{Min: x0, Max: x1}, s.Frame.XRange),
		Y: clampRange(Range{Min: y0, Max: y1}, s.Frame.YRange),
	}
	return s.view
}

// ResetView 恢复到完整的坐标边界。
func (s *Surface) ResetView() View {
	s.view = View{X: s.Frame.XRange, Y: s.Frame.YRange}
	return s.view
}

// Transform 返回当前视图的坐标变换。
func (s *Surface) Transform() Transform { return NewTransform(s.Frame, s.view) }

// Extent 返回所有图层几何的包络，矩形按旋转后的角点计算。非有限坐标被跳过；没有任何几何时 ok 为 false。
func (s *Surface) Extent() (x, y Range, ok bool) {
	t := NewTransform(s.Frame, View{X: s.Frame.XRange, Y: s.Frame.YRange})
	var env geom.Envelope
	for _, l := range s.layers {
		src := s.sources[l.Source]
		for row := 0; row < src.Len(); row++ {
			if l.Glyph != GlyphRect || !src.HasBoxes() {
				env = extend(env, src.X[row], src.Y[row])
				continue
			}
			for _, c := range t.BoxCorners(src.X[row], src.Y[row], src.W[row], src.H[row], l.Angle) {
				dx, dy := t.ToData(c[0], c[1])
				env = extend(env, dx, dy)
			}
		}
	}
	lo, hi, ok := env.MinMaxXYs()
	if !ok {
		return Range{}, Range{}, false
	}
	return Range{Min: lo.X, Max: hi.X}, Range{Min: lo.Y, Max: hi.Y}, true
}

func extend(env geom.Envelope, x, y float64) geom.Envelope {
	next, err := env.ExtendToIncludeXY(geom.XY{X: x, Y: y})
	if err != nil {
		return env
	}
	return next
}

// InBounds 判断几何包络是否完全位于坐标边界内；没有几何时视为在界内。
func (s *Surface) InBounds() bool {
	x, y, ok := s.Extent()
	if !ok {
		return true
	}
	return x.Min >= s.Frame.XRange.Min && x.Max <= s.Frame.XRange.Max &&
		y.Min >= s.Frame.YRange.Min && y.Max <= s.Frame.YRange.Max
}
