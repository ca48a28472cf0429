package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ByLCY/reachplot/adapter"
	"github.com/ByLCY/reachplot/config"
	"github.com/ByLCY/reachplot/dsl"
	"github.com/ByLCY/reachplot/layout"
	"github.com/ByLCY/reachplot/logging"
	"github.com/ByLCY/reachplot/metrics"
	"github.com/ByLCY/reachplot/panel"
	canvasrenderer "github.com/ByLCY/reachplot/renderer/canvas"
	"github.com/ByLCY/reachplot/server"
)

type options struct {
	input        string
	output       string
	htmlPath     string
	figure       string
	image        string
	format       string
	debug        string
	debugSources bool
	serve        bool
}

func main() {
	_ = godotenv.Load() // .env 可选

	configDir := flag.String("config", ".", "配置文件 reachplot.cfg.json 所在目录")
	var opts options
	flag.StringVar(&opts.input, "in", "", "Vista 导出的 JSON 文件路径（原始 JSON 或 base64）")
	flag.StringVar(&opts.output, "out", "output/reachplot.svg", "绘图输出路径")
	flag.StringVar(&opts.htmlPath, "html", "", "HTML 报告输出路径（图与文本面板）")
	flag.StringVar(&opts.figure, "figure", "", "figure 描述文件，留空使用内置样式")
	flag.StringVar(&opts.image, "image", "", "背景图片路径，覆盖 figure 中的设置")
	flag.StringVar(&opts.format, "format", "", "输出格式：svg、pdf 或 png")
	flag.StringVar(&opts.debug, "debug", "", "绘图面调试 JSON 输出路径")
	flag.BoolVar(&opts.debugSources, "debug-sources", false, "在调试 JSON 中输出数据源")
	flag.BoolVar(&opts.serve, "serve", false, "启动本地交互页面")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	applyConfig(&opts)

	logger := logging.New(os.Stderr, config.GetString("logLevel"), config.GetString("logFormat"))
	recorder, err := metrics.New(nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化指标失败")
	}

	surface, err := buildSurface(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("构建绘图面失败")
	}
	a := adapter.New(surface, adapter.WithLogger(logger), adapter.WithMetrics(recorder))

	if opts.serve {
		if err := serve(a, logger); err != nil {
			logger.Fatal().Err(err).Msg("服务异常退出")
		}
		return
	}

	if opts.input == "" {
		log.Fatalf("请通过 -in 指定输入文件，或使用 -serve 启动交互页面")
	}
	r, err := newRenderer(opts.format)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := run(a, r, opts); err != nil {
		log.Fatalf("生成绘图失败: %v", err)
	}
	fmt.Printf("已生成绘图：%s\n", opts.output)
}

// applyConfig 用配置补齐未在命令行中指定的选项。
func applyConfig(opts *options) {
	if opts.figure == "" {
		opts.figure = config.GetString("figure")
	}
	if opts.image == "" {
		opts.image = config.GetString("image")
	}
	if opts.format == "" {
		opts.format = config.GetString("output.format")
	}
}

func buildSurface(opts options) (*layout.Surface, error) {
	doc := dsl.Default()
	if opts.figure != "" {
		file, err := os.Open(opts.figure)
		if err != nil {
			return nil, fmt.Errorf("无法打开 figure 文件 %s: %w", opts.figure, err)
		}
		defer file.Close()
		doc, err = dsl.Parse(file)
		if err != nil {
			return nil, fmt.Errorf("解析 figure 失败: %w", err)
		}
	}
	return layout.Build(doc, layout.BuildOptions{
		Image: opts.image,
		Debug: layout.DebugOptions{Sources: opts.debugSources},
	})
}

func newRenderer(format string) (*canvasrenderer.Renderer, error) {
	f, err := canvasrenderer.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: config.GetString("assetsDir"),
		Format:  f,
		DPMM:    config.GetFloat64("output.dpmm"),
	}), nil
}

// run 串联加载、绘制与输出。
func run(a *adapter.Adapter, r *canvasrenderer.Renderer, opts options) error {
	raw, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("无法读取输入文件 %s: %w", opts.input, err)
	}
	loadErr := a.OnLoad(raw)
	surface := a.Surface()

	if opts.debug != "" {
		if err := writeDebug(surface, opts.debug); err != nil {
			return err
		}
	}
	if loadErr != nil {
		// 仍然输出 HTML，面板中显示错误状态
		if opts.htmlPath != "" {
			_ = writeHTML(surface, opts.htmlPath)
		}
		return fmt.Errorf("解析文档失败: %w", loadErr)
	}

	data, err := r.Render(surface)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := writeFile(opts.output, data); err != nil {
		return err
	}
	if opts.htmlPath != "" {
		return writeHTML(surface, opts.htmlPath)
	}
	return nil
}

func serve(a *adapter.Adapter, logger zerolog.Logger) error {
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: config.GetString("assetsDir"),
		Format:  canvasrenderer.FormatSVG,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(a, r, logger).ListenAndServe(ctx, config.GetString("serve.address"))
}

func writeHTML(surface *layout.Surface, path string) error {
	var plot []byte
	if surface.Error() == "" {
		svgRenderer := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			BaseDir: config.GetString("assetsDir"),
			Format:  canvasrenderer.FormatSVG,
		})
		data, err := svgRenderer.Render(surface)
		if err != nil {
			return fmt.Errorf("渲染 SVG 失败: %w", err)
		}
		plot = data
	}
	var buf bytes.Buffer
	if err := panel.Render(&buf, panel.FromSurface(surface, plot, false)); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

func writeDebug(surface *layout.Surface, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(surface, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
