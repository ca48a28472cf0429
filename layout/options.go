package layout

// BuildOptions 配置绘图面构建阶段的可选项。
type BuildOptions struct {
	// Image 非空时覆盖 figure 中声明的背景图片路径。
	Image string
	Debug DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	Sources bool // 在调试 JSON 中输出数据源的全部列
}
