package renderer

import "github.com/ByLCY/reachplot/layout"

// Renderer 将绘图面输出为最终文件，例如 SVG、PDF 或 PNG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(surface *layout.Surface) ([]byte, error)
}
