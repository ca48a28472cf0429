package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/reachplot/binding"
	"github.com/ByLCY/reachplot/dsl"
)

// defaultFrame 与 Vista 导出工具的原始绘图保持一致。
func defaultFrame() Frame {
	return Frame{
		Title:          "Vista Reachability Analysis",
		TitleColor:     Color{R: 255, G: 255, B: 255},
		Width:          1200,
		Height:         700,
		XRange:         Range{Min: -62, Max: 62},
		YRange:         Range{Min: -35, Max: 35},
		Background:     Color{R: 0x25, G: 0x2e, B: 0x38},
		Border:         Color{R: 0x25, G: 0x2e, B: 0x38},
		Outline:        Color{R: 0x41, G: 0x45, B: 0x4a},
		MarkerSize:     8,
		ReachableAlpha: 0.3,
		UnsafeColor:    Color{R: 255, G: 255, B: 0},
		UnsafeAlpha:    0.5,
		Legend:         LegendOptions{Location: "top_left", ClickPolicy: "hide"},
		Tooltip: []binding.Field{
			{Label: "(x,y)", Template: "(${x}, ${y})"},
			{Label: "Path", Template: "${desc}"},
		},
		Panel: PanelOptions{Width: 400, Empty: "No File Selected"},
	}
}

// Build 根据 figure 描述生成一个空的绘图面；未声明的配置沿用默认值。
func Build(doc *dsl.Document, opts BuildOptions) (*Surface, error) {
	if doc == nil {
		return nil, fmt.Errorf("figure 文档为空")
	}
	frame := defaultFrame()
	tooltipDeclared := false
	for _, st := range doc.Statements {
		switch {
		case st.Assignment != nil:
			if err := applyAssignment(&frame, st.Assignment); err != nil {
				return nil, err
			}
		case st.Command != nil:
			cmd := st.Command
			switch cmd.Name {
			case "image":
				img, err := parseImage(cmd)
				if err != nil {
					return nil, err
				}
				frame.Image = img
			case "legend":
				frame.Legend = parseLegend(cmd, frame.Legend)
			case "tooltip":
				if !tooltipDeclared {
					frame.Tooltip = nil
					tooltipDeclared = true
				}
				frame.Tooltip = append(frame.Tooltip, parseTooltip(cmd)...)
			case "panel":
				if err := parsePanel(cmd, &frame.Panel); err != nil {
					return nil, err
				}
			default:
				// 其余命令暂未实现，忽略即可
			}
		}
	}
	if opts.Image != "" {
		if frame.Image == nil {
			frame.Image = &ImageBox{
				X: frame.XRange.Min, Y: frame.YRange.Max,
				W: frame.XRange.Span(), H: frame.YRange.Span(),
				Opacity: 1,
			}
		}
		frame.Image.Src = opts.Image
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("figure 尺寸无效：%gx%g", frame.Width, frame.Height)
	}
	if frame.XRange.Span() <= 0 || frame.YRange.Span() <= 0 {
		return nil, fmt.Errorf("figure 坐标范围无效：x=%v y=%v", frame.XRange, frame.YRange)
	}
	return NewSurface(frame, opts.Debug), nil
}

func applyAssignment(f *Frame, a *dsl.Assignment) error {
	key := strings.ToLower(string(a.Key))
	switch key {
	case "title":
		f.Title = a.Value.Text()
	case "title-color":
		return assignColor(&f.TitleColor, key, a.Value)
	case "background":
		return assignColor(&f.Background, key, a.Value)
	case "border":
		return assignColor(&f.Border, key, a.Value)
	case "outline":
		return assignColor(&f.Outline, key, a.Value)
	case "unsafe-color":
		return assignColor(&f.UnsafeColor, key, a.Value)
	case "size":
		vals, ok := a.Value.Floats()
		if !ok || len(vals) != 2 {
			return fmt.Errorf("size 需要 [宽, 高] 两个数值")
		}
		f.Width, f.Height = vals[0], vals[1]
	case "x-range", "y-range":
		vals, ok := a.Value.Floats()
		if !ok || len(vals) != 2 {
			return fmt.Errorf("%s 需要 [最小值, 最大值] 两个数值", key)
		}
		r := Range{Min: vals[0], Max: vals[1]}
		if key == "x-range" {
			f.XRange = r
		} else {
			f.YRange = r
		}
	case "marker-size":
		return assignFloat(&f.MarkerSize, key, a.Value)
	case "reachable-alpha":
		return assignFloat(&f.ReachableAlpha, key, a.Value)
	case "unsafe-alpha":
		return assignFloat(&f.UnsafeAlpha, key, a.Value)
	}
	return nil
}

func assignColor(dst *Color, key string, v *dsl.Value) error {
	c, err := parseColor(v.Text())
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = c
	return nil
}

func assignFloat(dst *float64, key string, v *dsl.Value) error {
	f, ok := v.Float()
	if !ok {
		return fmt.Errorf("%s 需要数值，实际为 %q", key, v.Text())
	}
	*dst = f
	return nil
}

func parseImage(cmd *dsl.Command) (*ImageBox, error) {
	if len(cmd.Args) == 0 || cmd.Args[0].Text() == "" {
		return nil, fmt.Errorf("image 语句缺少资源路径")
	}
	img := &ImageBox{Src: cmd.Args[0].Text(), Opacity: 1}
	if cmd.Block == nil {
		return nil, fmt.Errorf("image 语句缺少 x/y/w/h")
	}
	fields := map[string]*float64{"x": &img.X, "y": &img.Y, "w": &img.W, "h": &img.H, "opacity": &img.Opacity}
	for _, st := range cmd.Block.Statements {
		if st.Assignment == nil {
			continue
		}
		key := strings.ToLower(string(st.Assignment.Key))
		dst, ok := fields[key]
		if !ok {
			continue
		}
		if err := assignFloat(dst, "image."+key, st.Assignment.Value); err != nil {
			return nil, err
		}
	}
	if img.W <= 0 || img.H <= 0 {
		return nil, fmt.Errorf("image %s 的宽高必须为正数", img.Src)
	}
	return img, nil
}

func parseLegend(cmd *dsl.Command, legend LegendOptions) LegendOptions {
	if cmd.Block == nil {
		return legend
	}
	for _, st := range cmd.Block.Statements {
		if st.Assignment == nil {
			continue
		}
		switch strings.ToLower(string(st.Assignment.Key)) {
		case "location":
			legend.Location = strings.ToLower(st.Assignment.Value.Text())
		case "click":
			legend.ClickPolicy = strings.ToLower(st.Assignment.Value.Text())
		}
	}
	return legend
}

func parseTooltip(cmd *dsl.Command) []binding.Field {
	if cmd.Block == nil {
		return nil
	}
	var fields []binding.Field
	for _, st := range cmd.Block.Statements {
		if st.Assignment == nil {
			continue
		}
		fields = append(fields, binding.Field{
			Label:    string(st.Assignment.Key),
			Template: st.Assignment.Value.Text(),
		})
	}
	return fields
}

func parsePanel(cmd *dsl.Command, panel *PanelOptions) error {
	if cmd.Block == nil {
		return nil
	}
	for _, st := range cmd.Block.Statements {
		if st.Assignment == nil {
			continue
		}
		switch strings.ToLower(string(st.Assignment.Key)) {
		case "width":
			if err := assignFloat(&panel.Width, "panel.width", st.Assignment.Value); err != nil {
				return err
			}
		case "empty":
			panel.Empty = st.Assignment.Value.Text()
		}
	}
	return nil
}

func parseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	case 6:
	case 8:
		v = v[:6] // 忽略 alpha 通道，透明度由图层单独控制
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	return Color{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}
