package layout

// 该文件定义渲染面（Surface）上的帧配置、数据源与图层描述，供适配器、渲染器与调试 JSON 共用。

import (
	"fmt"

	"github.com/ByLCY/reachplot/binding"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Hex 输出 #rrggbb 形式。
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Range 是一个闭区间。
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Span() float64 { return r.Max - r.Min }

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Frame 记录绘图面的固定配置：尺寸、坐标边界、配色、背景图、图例与提示。
// 宽高单位为画布单位（1 单位 = 1 像素）。
type Frame struct {
	Title          string          `json:"title"`
	TitleColor     Color           `json:"titleColor"`
	Width          float64         `json:"width"`
	Height         float64         `json:"height"`
	XRange         Range           `json:"xRange"`
	YRange         Range           `json:"yRange"`
	Background     Color           `json:"background"`
	Border         Color           `json:"border"`
	Outline        Color           `json:"outline"`
	Image          *ImageBox       `json:"image,omitempty"`
	MarkerSize     float64         `json:"markerSize"`
	ReachableAlpha float64         `json:"reachableAlpha"`
	UnsafeColor    Color           `json:"unsafeColor"`
	UnsafeAlpha    float64         `json:"unsafeAlpha"`
	Legend         LegendOptions   `json:"legend"`
	Tooltip        []binding.Field `json:"tooltip"`
	Panel          PanelOptions    `json:"panel"`
}

// ImageBox 描述背景图片，X/Y 为左上角的数据坐标，W/H 为数据坐标下的宽高。
type ImageBox struct {
	Src     string  `json:"src"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Opacity float64 `json:"opacity"`
}

// LegendOptions 控制图例位置与点击策略（hide 表示点击切换可见性）。
type LegendOptions struct {
	Location    string `json:"location"`
	ClickPolicy string `json:"clickPolicy"`
}

// PanelOptions 控制侧边文本面板。
type PanelOptions struct {
	Width float64 `json:"width"`
	Empty string  `json:"empty"`
}

// Glyph 是图层使用的绘制原语。
type Glyph int

const (
	GlyphLine Glyph = iota
	GlyphCircle
	GlyphRect
)

func (g Glyph) String() string {
	switch g {
	case GlyphLine:
		return "line"
	case GlyphCircle:
		return "circle"
	case GlyphRect:
		return "rect"
	default:
		return "unknown"
	}
}

// MarshalText 让调试 JSON 输出可读的原语名称。
func (g Glyph) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// UnmarshalText 解析 MarshalText 的输出。
func (g *Glyph) UnmarshalText(text []byte) error {
	switch string(text) {
	case "line":
		*g = GlyphLine
	case "circle":
		*g = GlyphCircle
	case "rect":
		*g = GlyphRect
	default:
		return fmt.Errorf("未知的图形原语 %q", text)
	}
	return nil
}

// Source 是列式数据源：每一行对应一个点（line/circle）或一个矩形中心（rect）。
type Source struct {
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
	W    []float64 `json:"w,omitempty"`
	H    []float64 `json:"h,omitempty"`
	Desc []string  `json:"desc"`
}

// Len 返回行数。
func (s *Source) Len() int { return len(s.X) }

// AddPoint 追加一个点。
func (s *Source) AddPoint(x, y float64, desc string) {
	s.X = append(s.X, x)
	s.Y = append(s.Y, y)
	s.Desc = append(s.Desc, desc)
}

// AddBox 追加一个以 (x, y) 为中心、宽高为 w/h 的矩形。
func (s *Source) AddBox(x, y, w, h float64, desc string) {
	s.AddPoint(x, y, desc)
	s.W = append(s.W, w)
	s.H = append(s.H, h)
}

// HasBoxes 表示每一行都带有宽高，可按矩形绘制。
func (s *Source) HasBoxes() bool { return len(s.W) == len(s.X) && len(s.H) == len(s.X) }

// Clear 清空所有列，保留底层容量以便下次加载复用。
func (s *Source) Clear() {
	s.X = s.X[:0]
	s.Y = s.Y[:0]
	s.W = s.W[:0]
	s.H = s.H[:0]
	s.Desc = s.Desc[:0]
}

// Layer 是一次绘制调用：某个数据源按某种原语、颜色与透明度绘制。
type Layer struct {
	Glyph   Glyph   `json:"glyph"`
	Source  int     `json:"source"`
	Legend  string  `json:"legend"`
	Fill    Color   `json:"fill"`
	Line    Color   `json:"line"`
	Alpha   float64 `json:"alpha"`
	Size    float64 `json:"size"`  // circle 直径（像素）或 line 线宽（像素）
	Angle   float64 `json:"angle"` // rect 旋转角（弧度）
	Visible bool    `json:"visible"`
}

// LegendItem 是图例中的一项，同名图层共享一个条目。
type LegendItem struct {
	Label   string  `json:"label"`
	Glyph   Glyph   `json:"glyph"`
	Color   Color   `json:"color"`
	Alpha   float64 `json:"alpha"`
	Visible bool    `json:"visible"`
}

// Tooltip 是悬停命中的一个图层及其渲染后的提示行。
type Tooltip struct {
	Legend string   `json:"legend"`
	Lines  []string `json:"lines"`
}
