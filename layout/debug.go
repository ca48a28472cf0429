package layout

import (
	"os"

	"github.com/goccy/go-json"
)

type debugSnapshot struct {
	Frame   Frame     `json:"frame"`
	View    View      `json:"view"`
	Layers  []Layer   `json:"layers"`
	Sources []*Source `json:"sources,omitempty"`
	Blocks  []string  `json:"blocks"`
	Error   string    `json:"error,omitempty"`
}

// WriteDebugJSON 将当前绘图面输出为 JSON，便于调试或对比两次加载的结果。
func WriteDebugJSON(s *Surface, path string) error {
	if s == nil {
		return nil
	}
	snap := debugSnapshot{
		Frame:  s.Frame,
		View:   s.view,
		Layers: s.layers,
		Blocks: s.blocks,
		Error:  s.errText,
	}
	if s.debug.Sources {
		snap.Sources = s.sources
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
