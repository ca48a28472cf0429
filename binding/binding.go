// Package binding fills ${path} placeholders in tooltip templates.
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path} 或 ${path:%.3f} 替换为 data 中的值。
// 浮点数默认保留两位小数；若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path, verb, _ := strings.Cut(strings.TrimSpace(groups[1]), ":")
		path = strings.TrimSpace(path)
		if path == "" {
			return match
		}
		val, ok := resolvePath(data, path)
		if !ok {
			return match
		}
		return format(val, strings.TrimSpace(verb))
	})
}

// Field 描述 tooltip 的一行：标签与模板。
type Field struct {
	Label    string `json:"label"`
	Template string `json:"template"`
}

// Render 依次渲染每一行，输出 "label: value"。
func Render(fields []Field, data any) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Label+": "+Interpolate(f.Template, data))
	}
	return out
}

func format(val any, verb string) string {
	if verb != "" {
		return fmt.Sprintf(verb, val)
	}
	switch v := val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	default:
		return fmt.Sprint(val)
	}
}

// resolvePath walks dotted map keys only; tooltip rows carry no lists.
func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, key := range strings.Split(path, ".") {
		var ok bool
		current, ok = descendMap(current, key)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	case map[string]float64:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}
