// Package adapter feeds decoded documents into the one persistent surface.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ByLCY/reachplot/decoder"
	"github.com/ByLCY/reachplot/layout"
	"github.com/ByLCY/reachplot/metrics"
)

// ErrorPrefix 是错误状态下面板显示的前缀。
const ErrorPrefix = "Error loading file: "

// Adapter 持有唯一的绘图面；每次加载先清空再重新绘制。
type Adapter struct {
	surface *layout.Surface
	log     zerolog.Logger
	metrics *metrics.Recorder
	result  *decoder.Result
}

// Option 配置 Adapter。
type Option func(*Adapter)

// WithLogger 设置日志记录器，默认不输出。
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithMetrics 设置指标记录器。
func WithMetrics(r *metrics.Recorder) Option {
	return func(a *Adapter) { a.metrics = r }
}

// New 创建 Adapter。surface 由调用方创建一次，之后不会被替换。
func New(surface *layout.Surface, opts ...Option) *Adapter {
	a := &Adapter{surface: surface, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Surface 返回被管理的绘图面。
func (a *Adapter) Surface() *layout.Surface { return a.surface }

// Result 返回最近一次成功加载的解码结果，失败或重置后为 nil。
func (a *Adapter) Result() *decoder.Result { return a.result }

// Reset 清空所有数据源、图层与面板内容，可重复调用。
func (a *Adapter) Reset() {
	a.surface.Reset()
	a.result = nil
}

// OnLoad 解码一份文档并重绘。解码失败时面板进入错误状态，不绘制任何图形。
func (a *Adapter) OnLoad(raw []byte) error {
	a.Reset()
	ctx := context.Background()
	start := time.Now()
	res, err := decoder.Decode(raw)
	elapsed := time.Since(start)
	if err != nil {
		kind := decoder.KindOf(err).String()
		a.metrics.Failed(ctx, kind, elapsed)
		a.log.Warn().Err(err).Str("kind", kind).Msg("文档加载失败")
		a.surface.SetError(ErrorPrefix + err.Error())
		return err
	}
	if err := a.draw(res); err != nil {
		// 绘制失败时不保留半成品
		a.Reset()
		a.surface.SetError(ErrorPrefix + err.Error())
		return err
	}
	a.result = res
	a.metrics.Loaded(ctx, elapsed)

	if !a.surface.InBounds() {
		x, y, _ := a.surface.Extent()
		a.log.Warn().
			Float64("xMin", x.Min).Float64("xMax", x.Max).
			Float64("yMin", y.Min).Float64("yMax", y.Max).
			Msg("图形超出坐标边界")
	}
	a.log.Info().
		Int("paths", len(res.Paths)).
		Int("actions", len(res.Trajectories)).
		Int("unsafe", res.UnsafeCount()).
		Dur("decode", elapsed).
		Msg("文档已加载")
	return nil
}

func (a *Adapter) draw(res *decoder.Result) error {
	f := a.surface.Frame
	slot := 0
	next := func() (int, *layout.Source) {
		s := slot
		slot++
		return s, a.surface.Source(s)
	}

	for _, p := range res.Paths {
		idx, src := next()
		for _, wp := range p.Waypoints {
			src.AddPoint(wp.X, wp.Y, p.Name)
		}
		col := toLayout(p.Color)
		if err := a.add(layout.Layer{Glyph: layout.GlyphLine, Source: idx, Legend: "Path: " + p.Name, Fill: col, Line: col, Size: 1}); err != nil {
			return err
		}
		if err := a.add(layout.Layer{Glyph: layout.GlyphCircle, Source: idx, Legend: "Waypoints of " + p.Name, Fill: col, Line: col, Size: f.MarkerSize}); err != nil {
			return err
		}
	}

	for _, t := range res.Trajectories {
		idx, src := next()
		for _, b := range t.Reachable {
			src.AddBox(b.CenterX, b.CenterY, b.Width, b.Height, b.Desc)
		}
		col := toLayout(t.Color)
		layer := layout.Layer{
			Glyph:  layout.GlyphRect,
			Source: idx,
			Legend: "Reachable Intervals for trajectory " + t.Name,
			Fill:   col,
			Line:   col,
			Alpha:  f.ReachableAlpha,
			Angle:  t.Rotation,
		}
		if err := a.add(layer); err != nil {
			return err
		}
	}

	for _, t := range res.Trajectories {
		idx, src := next()
		for _, u := range t.Unsafe {
			src.AddBox(u.X, u.Y, u.Width, u.Height, u.Desc)
		}
		layer := layout.Layer{
			Glyph:  layout.GlyphRect,
			Source: idx,
			Legend: "Unsafe Region",
			Fill:   f.UnsafeColor,
			Line:   f.UnsafeColor,
			Alpha:  f.UnsafeAlpha,
			Angle:  t.Rotation,
		}
		if err := a.add(layer); err != nil {
			return err
		}
	}

	for _, block := range res.Details.Blocks() {
		a.surface.AppendText(block)
	}
	return nil
}

func (a *Adapter) add(l layout.Layer) error {
	if _, err := a.surface.AddLayer(l); err != nil {
		return fmt.Errorf("添加图层失败: %w", err)
	}
	return nil
}

func toLayout(c decoder.Color) layout.Color {
	return layout.Color{R: c.R, G: c.G, B: c.B}
}
