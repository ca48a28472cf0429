package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/reachplot/fonts"
	"github.com/ByLCY/reachplot/layout"
	"github.com/ByLCY/reachplot/renderer"
)

const (
	// 1 画布单位 = 1 像素；字体接口使用 pt。
	pxToPt = 72.0 / 25.4

	titleSize  = 15.0
	legendSize = 12.0
	legendPad  = 8.0
	legendRow  = 18.0
	swatchSize = 12.0
	strokeSize = 1.0
)

var hiddenText = layout.Color{R: 0x80, G: 0x80, B: 0x80}

// Format 是输出文件格式。
type Format string

const (
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// ParseFormat 解析输出格式名称，空串视为 svg。
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatPDF, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q", name)
	}
}

// Renderer draws surfaces via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string
	format  Format
	dpmm    float64
	creator string

	imageBlobs map[string][]byte // by unique name

	mu     sync.Mutex
	family *canvas.FontFamily
	images map[string]image.Image
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Format  Format
	DPMM    float64             // PNG 分辨率，每画布单位的像素数
	Creator string              // PDF 文档信息中的生成者
	Images  map[string]Resource // built-in images accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates an SVG renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:    opts.BaseDir,
		format:     opts.Format,
		dpmm:       opts.DPMM,
		creator:    opts.Creator,
		imageBlobs: map[string][]byte{},
		images:     map[string]image.Image{},
	}
	if r.format == "" {
		r.format = FormatSVG
	}
	if r.dpmm <= 0 {
		r.dpmm = 1
	}
	if r.creator == "" {
		r.creator = "reachplot"
	}
	for name, res := range opts.Images {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.imageBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 使用时再报告缺失
			if len(data) > 0 {
				r.imageBlobs[name] = data
			}
		}
	}
	return r
}

// Format 返回当前输出格式。
func (r *Renderer) Format() Format { return r.format }

// Render 按当前视图绘制绘图面并编码为目标格式。
func (r *Renderer) Render(s *layout.Surface) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("绘图面为空")
	}
	f := s.Frame
	c := canvas.New(f.Width, f.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianI) // 与数据坐标一致，原点在左下角

	if err := r.draw(ctx, s); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch r.format {
	case FormatSVG:
		w := svg.New(&buf, f.Width, f.Height, nil)
		c.RenderTo(w)
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case FormatPDF:
		w := pdf.New(&buf, f.Width, f.Height, nil)
		w.SetInfo(f.Title, "", "", "", r.creator)
		c.RenderTo(w)
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case FormatPNG:
		if err := renderers.PNG(canvas.DPMM(r.dpmm))(&buf, c); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", r.format)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) draw(ctx *canvas.Context, s *layout.Surface) error {
	f := s.Frame
	t := s.Transform()
	area := t.Area()

	// 背景：先整体填充边框色，再填充绘图区
	fillRect(ctx, layout.Rect{W: f.Width, H: f.Height}, f.Border)
	fillRect(ctx, area, f.Background)
	if f.Image != nil && f.Image.Src != "" {
		if err := r.drawImage(ctx, t, *f.Image); err != nil {
			return err
		}
	}

	sources := s.Sources()
	for _, l := range s.Layers() {
		if !l.Visible {
			continue
		}
		drawLayer(ctx, t, l, sources[l.Source])
	}

	// 重新填充绘图区以外的边框，遮住越界的图形
	maskOutside(ctx, f, area)
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(toColor(f.Outline, 1))
	ctx.SetStrokeWidth(strokeSize)
	ctx.DrawPath(area.X, area.Y, canvas.Rectangle(area.W, area.H))

	if f.Title != "" {
		face, err := r.face(canvas.FontBold, titleSize, f.TitleColor)
		if err != nil {
			return err
		}
		baseline := f.Height - (f.Height-area.Y-area.H)/2 - titleSize/3
		ctx.DrawText(area.X+area.W/2, baseline, canvas.NewTextLine(face, f.Title, canvas.Center))
	}
	return r.drawLegend(ctx, f, area, s.Legend())
}

func drawLayer(ctx *canvas.Context, t layout.Transform, l layout.Layer, src *layout.Source) {
	switch l.Glyph {
	case layout.GlyphLine:
		if src.Len() < 2 {
			return
		}
		p := &canvas.Path{}
		for i := 0; i < src.Len(); i++ {
			x, y := t.ToCanvas(src.X[i], src.Y[i])
			if i == 0 {
				p.MoveTo(x, y)
			} else {
				p.LineTo(x, y)
			}
		}
		width := l.Size
		if width <= 0 {
			width = strokeSize
		}
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(toColor(l.Line, alphaOf(l)))
		ctx.SetStrokeWidth(width)
		ctx.DrawPath(0, 0, p)
	case layout.GlyphCircle:
		ctx.SetFillColor(toColor(l.Fill, alphaOf(l)))
		ctx.SetStrokeColor(toColor(l.Line, alphaOf(l)))
		ctx.SetStrokeWidth(strokeSize)
		for i := 0; i < src.Len(); i++ {
			x, y := t.ToCanvas(src.X[i], src.Y[i])
			ctx.DrawPath(x, y, canvas.Circle(l.Size/2))
		}
	case layout.GlyphRect:
		if !src.HasBoxes() {
			return
		}
		ctx.SetFillColor(toColor(l.Fill, alphaOf(l)))
		ctx.SetStrokeColor(toColor(l.Line, alphaOf(l)))
		ctx.SetStrokeWidth(strokeSize)
		for i := 0; i < src.Len(); i++ {
			ctx.DrawPath(0, 0, polygon(t.BoxCorners(src.X[i], src.Y[i], src.W[i], src.H[i], l.Angle)))
		}
	}
}

func polygon(corners [4][2]float64) *canvas.Path {
	p := &canvas.Path{}
	p.MoveTo(corners[0][0], corners[0][1])
	for _, c := range corners[1:] {
		p.LineTo(c[0], c[1])
	}
	p.Close()
	return p
}

func (r *Renderer) drawLegend(ctx *canvas.Context, f layout.Frame, area layout.Rect, items []layout.LegendItem) error {
	if len(items) == 0 {
		return nil
	}
	width := 0.0
	faces := make([]*canvas.FontFace, len(items))
	for i, item := range items {
		col := layout.Color{R: 0xee, G: 0xee, B: 0xee}
		if !item.Visible {
			col = hiddenText
		}
		face, err := r.face(canvas.FontRegular, legendSize, col)
		if err != nil {
			return err
		}
		faces[i] = face
		if w := face.TextWidth(item.Label); w > width {
			width = w
		}
	}
	box := layout.Rect{
		W: width + swatchSize + 3*legendPad,
		H: float64(len(items))*legendRow + legendPad,
	}
	box.X, box.Y = legendOrigin(f.Legend.Location, area, box)

	ctx.SetFillColor(toColor(f.Background, 0.8))
	ctx.SetStrokeColor(toColor(f.Outline, 1))
	ctx.SetStrokeWidth(strokeSize)
	ctx.DrawPath(box.X, box.Y, canvas.Rectangle(box.W, box.H))

	for i, item := range items {
		alpha := 1.0
		if !item.Visible {
			alpha = 0.3
		}
		// 行自上而下排列
		rowTop := box.Y + box.H - legendPad/2 - float64(i)*legendRow
		sx := box.X + legendPad
		sy := rowTop - (legendRow+swatchSize)/2
		ctx.SetStrokeColor(toColor(item.Color, alpha))
		switch item.Glyph {
		case layout.GlyphLine:
			ctx.SetFillColor(canvas.Transparent)
			ctx.SetStrokeWidth(2 * strokeSize)
			p := &canvas.Path{}
			p.MoveTo(0, swatchSize/2)
			p.LineTo(swatchSize, swatchSize/2)
			ctx.DrawPath(sx, sy, p)
		case layout.GlyphCircle:
			ctx.SetFillColor(toColor(item.Color, alpha))
			ctx.SetStrokeWidth(strokeSize)
			ctx.DrawPath(sx+swatchSize/2, sy+swatchSize/2, canvas.Circle(swatchSize/3))
		default:
			ctx.SetFillColor(toColor(item.Color, alpha*item.Alpha))
			ctx.SetStrokeWidth(strokeSize)
			ctx.DrawPath(sx, sy, canvas.Rectangle(swatchSize, swatchSize))
		}
		ctx.DrawText(sx+swatchSize+legendPad, sy+swatchSize/4, canvas.NewTextLine(faces[i], item.Label, canvas.Left))
	}
	return nil
}

func legendOrigin(location string, area, box layout.Rect) (float64, float64) {
	left := area.X + legendPad
	right := area.X + area.W - box.W - legendPad
	top := area.Y + area.H - box.H - legendPad
	bottom := area.Y + legendPad
	switch location {
	case "top_right":
		return right, top
	case "bottom_left":
		return left, bottom
	case "bottom_right":
		return right, bottom
	default:
		return left, top
	}
}

func (r *Renderer) drawImage(ctx *canvas.Context, t layout.Transform, box layout.ImageBox) error {
	img, err := r.loadImage(box.Src)
	if err != nil {
		return err
	}
	if box.Opacity > 0 && box.Opacity < 1 {
		img = fade(img, box.Opacity)
	}
	x0, y0 := t.ToCanvas(box.X, box.Y-box.H)
	x1, y1 := t.ToCanvas(box.X+box.W, box.Y)
	px := img.Bounds().Dx()
	py := img.Bounds().Dy()
	if px == 0 || py == 0 || x1 <= x0 || y1 <= y0 {
		return nil
	}
	dpmm := float64(px) / (x1 - x0)
	natural := float64(py) / dpmm
	ctx.Push()
	ctx.ComposeView(canvas.Identity.Translate(x0, y0).Scale(1, (y1-y0)/natural))
	ctx.DrawImage(0, 0, img, canvas.DPMM(dpmm))
	ctx.Pop()
	return nil
}

func (r *Renderer) loadImage(src string) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if img, ok := r.images[src]; ok {
		return img, nil
	}
	var data []byte
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		blob, ok := r.imageBlobs[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置图片资源 built-in:%s", name)
		}
		data = blob
	} else {
		if r.baseDir == "" && !filepath.IsAbs(src) {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s（请改用 built-in:）", src)
		}
		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.baseDir, path)
		}
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
		}
		data = blob
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	r.images[src] = img
	return img, nil
}

// fade 按透明度重新合成图片。
func fade(img image.Image, opacity float64) image.Image {
	out := image.NewRGBA(img.Bounds())
	mask := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(out, out.Bounds(), img, img.Bounds().Min, mask, image.Point{}, draw.Over)
	return out
}

func (r *Renderer) face(style canvas.FontStyle, size float64, col layout.Color) (*canvas.FontFace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.family == nil {
		family := canvas.NewFontFamily("reachplot")
		for name, st := range map[string]canvas.FontStyle{"Go-Regular": canvas.FontRegular, "Go-Bold": canvas.FontBold} {
			data, err := fonts.Load(name)
			if err != nil {
				return nil, err
			}
			if err := family.LoadFont(data, 0, st); err != nil {
				return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
			}
		}
		r.family = family
	}
	return r.family.Face(size*pxToPt, toColor(col, 1), style, canvas.FontNormal), nil
}

func fillRect(ctx *canvas.Context, rc layout.Rect, c layout.Color) {
	ctx.SetFillColor(toColor(c, 1))
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.W, rc.H))
}

func maskOutside(ctx *canvas.Context, f layout.Frame, area layout.Rect) {
	fillRect(ctx, layout.Rect{W: f.Width, H: area.Y}, f.Border)
	fillRect(ctx, layout.Rect{Y: area.Y + area.H, W: f.Width, H: f.Height - area.Y - area.H}, f.Border)
	fillRect(ctx, layout.Rect{Y: area.Y, W: area.X, H: area.H}, f.Border)
	fillRect(ctx, layout.Rect{X: area.X + area.W, Y: area.Y, W: f.Width - area.X - area.W, H: area.H}, f.Border)
}

func alphaOf(l layout.Layer) float64 {
	if l.Alpha <= 0 {
		return 1
	}
	return l.Alpha
}

func toColor(c layout.Color, alpha float64) color.RGBA {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, alpha)
}
