// Package panel composes the page that shows the plot next to the text panel.
package panel

import (
	"fmt"
	"html/template"
	"io"

	"github.com/ByLCY/reachplot/layout"
)

// Page is the data handed to the page template.
type Page struct {
	Title       string
	Width       float64 // plot width in pixels
	Height      float64
	PanelWidth  float64
	Empty       string
	Error       string
	Blocks      []template.HTML
	Plot        template.HTML // inline SVG for static pages
	Legend      []layout.LegendItem
	Interactive bool

	// 交互页面在浏览器端把像素换算为数据坐标
	Area layout.Rect
	View layout.View
}

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

// FromSurface collects everything the page shows from s. plot is the rendered
// SVG, inlined only for static pages.
func FromSurface(s *layout.Surface, plot []byte, interactive bool) Page {
	f := s.Frame
	p := Page{
		Title:       f.Title,
		Width:       f.Width,
		Height:      f.Height,
		PanelWidth:  f.Panel.Width,
		Empty:       f.Panel.Empty,
		Error:       s.Error(),
		Legend:      s.Legend(),
		Interactive: interactive,
		Area:        s.Transform().Area(),
		View:        s.View(),
	}
	if p.Title == "" {
		p.Title = "reachplot"
	}
	// 文本块由解码器生成，名称已转义
	for _, b := range s.Blocks() {
		if b != "" {
			p.Blocks = append(p.Blocks, template.HTML(b))
		}
	}
	if !interactive {
		p.Plot = template.HTML(plot)
	}
	return p
}

// Render writes the page.
func Render(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("渲染页面失败: %w", err)
	}
	return nil
}

// PanelHTML renders only the side panel, used to refresh it after a load.
func PanelHTML(w io.Writer, p Page) error {
	if err := pageTmpl.ExecuteTemplate(w, "panel", p); err != nil {
		return fmt.Errorf("渲染面板失败: %w", err)
	}
	return nil
}

const pageHTML = `{{define "panel"}}{{if .Error}}<div class="error">{{.Error}}</div>{{else if .Blocks}}{{range .Blocks}}<div class="block">{{.}}</div>{{end}}{{else}}<div>{{.Empty}}</div>{{end}}{{end}}<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <style>
      body { margin: 0; display: flex; background: #1b2128; color: #eee; font-family: sans-serif; }
      #left { width: {{.PanelWidth}}px; padding: 12px; box-sizing: border-box; font-size: 14px; }
      #left .error { color: #ff6b6b; }
      #plot { width: {{.Width}}px; height: {{.Height}}px; display: block; }
      #plot svg { width: 100%; height: 100%; }
      #legend button { margin: 2px; background: #252e38; color: #eee; border: 1px solid #41454a; }
      #legend button.hidden { color: #808080; }
      #tip { position: fixed; pointer-events: none; background: #fff; color: #000; padding: 4px; font-size: 12px; display: none; }
    </style>
  </head>
  <body>
    <div id="left">{{template "panel" .}}</div>
    <div id="main">
{{- if .Interactive}}
      <input type="file" id="file" accept=".json" />
      <img id="plot" src="/plot.svg" alt="{{.Title}}"
           data-area="{{.Area.X}},{{.Area.Y}},{{.Area.W}},{{.Area.H}}"
           data-view="{{.View.X.Min}},{{.View.X.Max}},{{.View.Y.Min}},{{.View.Y.Max}}" />
      <div id="legend">{{range .Legend}}<button class="{{if not .Visible}}hidden{{end}}" data-label="{{.Label}}">{{.Label}}</button>{{end}}</div>
      <button id="reset">Reset view</button>
      <div id="tip"></div>
      <script>
        const W = {{.Width}}, H = {{.Height}};
        const plot = document.getElementById("plot");
        const tip = document.getElementById("tip");
        let area = plot.dataset.area.split(",").map(Number);
        let view = plot.dataset.view.split(",").map(Number);

        function refresh(state) {
          if (state && state.view) { view = [state.view.x.min, state.view.x.max, state.view.y.min, state.view.y.max]; }
          if (state && state.panel !== undefined) { document.getElementById("left").innerHTML = state.panel; }
          if (state && state.legend) {
            const box = document.getElementById("legend");
            box.textContent = "";
            for (const item of state.legend) {
              const b = document.createElement("button");
              b.textContent = item.label;
              b.dataset.label = item.label;
              if (!item.visible) { b.className = "hidden"; }
              box.appendChild(b);
            }
          }
          plot.src = "/plot.svg?t=" + Date.now();
        }

        function toData(ev) {
          const cx = ev.offsetX * W / plot.clientWidth;
          const cy = H - ev.offsetY * H / plot.clientHeight;
          return [
            view[0] + (cx - area[0]) * (view[1] - view[0]) / area[2],
            view[2] + (cy - area[1]) * (view[3] - view[2]) / area[3],
          ];
        }

        document.getElementById("file").addEventListener("change", (ev) => {
          const file = ev.target.files[0];
          if (!file) { return; }
          const reader = new FileReader();
          reader.onload = () => {
            fetch("/load", { method: "POST", body: reader.result })
              .then((r) => r.json()).then(refresh);
          };
          reader.readAsDataURL(file);
        });

        document.getElementById("legend").addEventListener("click", (ev) => {
          const label = ev.target.dataset.label;
          if (label === undefined) { return; }
          fetch("/legend?label=" + encodeURIComponent(label), { method: "POST" })
            .then((r) => r.json()).then(refresh);
        });

        document.getElementById("reset").addEventListener("click", () => {
          fetch("/view/reset", { method: "POST" }).then((r) => r.json()).then(refresh);
        });

        plot.addEventListener("wheel", (ev) => {
          ev.preventDefault();
          const [x, y] = toData(ev);
          const k = ev.deltaY < 0 ? 0.8 : 1.25;
          const body = {
            x0: x - (x - view[0]) * k, x1: x + (view[1] - x) * k,
            y0: y - (y - view[2]) * k, y1: y + (view[3] - y) * k,
          };
          fetch("/view", { method: "POST", body: JSON.stringify(body) })
            .then((r) => r.json()).then(refresh);
        });

        let drag = null;
        plot.addEventListener("mousedown", (ev) => { ev.preventDefault(); drag = toData(ev); });
        window.addEventListener("mouseup", (ev) => {
          if (!drag || ev.target !== plot) { drag = null; return; }
          const [x, y] = toData(ev);
          const dx = drag[0] - x, dy = drag[1] - y;
          drag = null;
          if (dx === 0 && dy === 0) { return; }
          const body = { x0: view[0] + dx, x1: view[1] + dx, y0: view[2] + dy, y1: view[3] + dy };
          fetch("/view", { method: "POST", body: JSON.stringify(body) })
            .then((r) => r.json()).then(refresh);
        });

        plot.addEventListener("mousemove", (ev) => {
          const [x, y] = toData(ev);
          fetch("/hover?x=" + x + "&y=" + y).then((r) => r.json()).then((lines) => {
            if (!lines || lines.length === 0) { tip.style.display = "none"; return; }
            tip.textContent = lines.join("\n");
            tip.style.whiteSpace = "pre";
            tip.style.left = (ev.clientX + 12) + "px";
            tip.style.top = (ev.clientY + 12) + "px";
            tip.style.display = "block";
          });
        });
      </script>
{{- else}}
      <div id="plot">{{.Plot}}</div>
{{- end}}
    </div>
  </body>
</html>
`
