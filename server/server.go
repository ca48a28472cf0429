// Package server is the local HTTP shell around the adapter: file loading,
// legend toggling, hover tooltips and pan/zoom.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ByLCY/reachplot/adapter"
	"github.com/ByLCY/reachplot/layout"
	"github.com/ByLCY/reachplot/panel"
	"github.com/ByLCY/reachplot/renderer"
)

// maxPayload 限制单次上传的文档大小。
const maxPayload = 32 << 20

// Server serializes every request that touches the surface.
type Server struct {
	mu       sync.Mutex
	adapter  *adapter.Adapter
	renderer renderer.Renderer
	log      zerolog.Logger
}

// New creates a server around a. r must produce SVG.
func New(a *adapter.Adapter, r renderer.Renderer, log zerolog.Logger) *Server {
	return &Server{adapter: a, renderer: r, log: log}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /load", s.handleLoad)
	mux.HandleFunc("GET /plot.svg", s.handlePlot)
	mux.HandleFunc("POST /legend", s.handleLegend)
	mux.HandleFunc("GET /hover", s.handleHover)
	mux.HandleFunc("POST /view", s.handleView)
	mux.HandleFunc("POST /view/reset", s.handleViewReset)
	return withNoSniff(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info().Str("address", addr).Msg("服务已启动")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// state 是每次交互后返回给页面的完整状态。
type state struct {
	OK     bool                `json:"ok"`
	Error  string              `json:"error,omitempty"`
	Blocks []string            `json:"blocks"`
	Panel  string              `json:"panel"`
	Legend []layout.LegendItem `json:"legend"`
	View   layout.View         `json:"view"`
}

// snapshot must be called with s.mu held.
func (s *Server) snapshot(ok bool, msg string) (state, error) {
	surface := s.adapter.Surface()
	var buf bytes.Buffer
	if err := panel.PanelHTML(&buf, panel.FromSurface(surface, nil, true)); err != nil {
		return state{}, err
	}
	blocks := append([]string{}, surface.Blocks()...)
	legend := surface.Legend()
	if legend == nil {
		legend = []layout.LegendItem{}
	}
	return state{
		OK:     ok,
		Error:  msg,
		Blocks: blocks,
		Panel:  buf.String(),
		Legend: legend,
		View:   surface.View(),
	}, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	page := panel.FromSurface(s.adapter.Surface(), nil, true)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := panel.Render(w, page); err != nil {
		s.log.Error().Err(err).Msg("页面渲染失败")
	}
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("读取请求失败: %v", err))
		return
	}
	if len(body) > maxPayload {
		writeError(w, http.StatusRequestEntityTooLarge, "文档过大")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	loadErr := s.adapter.OnLoad(body)
	msg := ""
	if loadErr != nil {
		msg = loadErr.Error()
	}
	st, err := s.snapshot(loadErr == nil, msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// 解码失败属于正常的业务结果，由页面显示错误状态
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, err := s.renderer.Render(s.adapter.Surface())
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("绘图失败")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.adapter.Surface().ToggleLegend(label); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeState(w)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x 与 y 必须为数值")
		return
	}
	s.mu.Lock()
	lines := s.adapter.Surface().Hover(x, y)
	s.mu.Unlock()
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, lines)
}

type viewRequest struct {
	X0 *float64 `json:"x0"`
	X1 *float64 `json:"x1"`
	Y0 *float64 `json:"y0"`
	Y1 *float64 `json:"y1"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("视图参数无效: %v", err))
		return
	}
	if req.X0 == nil || req.X1 == nil || req.Y0 == nil || req.Y1 == nil {
		writeError(w, http.StatusBadRequest, "视图参数需要 x0、x1、y0、y1")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter.Surface().SetView(*req.X0, *req.X1, *req.Y0, *req.Y1)
	s.writeState(w)
}

func (s *Server) handleViewReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapter.Surface().ResetView()
	s.writeState(w)
}

// writeState must be called with s.mu held.
func (s *Server) writeState(w http.ResponseWriter) {
	st, err := s.snapshot(true, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withNoSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
