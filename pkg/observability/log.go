package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level
// structured log lines.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) done(msg string, duration time.Duration, err error, kv ...any) {
	kv = append(kv, "duration", duration.Round(time.Millisecond))
	if err != nil {
		h.Logger.Debug(msg+" failed", append(kv, "error", err)...)
		return
	}
	h.Logger.Debug(msg, kv...)
}

func (h *LogHooks) OnLoadStart(_ context.Context, target, tileDir string) {
	h.Logger.Debug("loading images", "target", target, "tiles", tileDir)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, target string, tiles int, d time.Duration, err error) {
	h.done("loaded images", d, err, "target", target, "tiles", tiles)
}

func (h *LogHooks) OnMatrixStart(_ context.Context, metric string, rows, columns int) {
	h.Logger.Debug("computing cost matrix", "metric", metric, "rows", rows, "columns", columns)
}

func (h *LogHooks) OnMatrixComplete(_ context.Context, metric string, d time.Duration, err error) {
	h.done("computed cost matrix", d, err, "metric", metric)
}

func (h *LogHooks) OnSolveStart(_ context.Context, solver string, rows, columns int) {
	h.Logger.Debug("solving", "solver", solver, "rows", rows, "columns", columns)
}

func (h *LogHooks) OnSolveComplete(_ context.Context, solver string, cost int64, d time.Duration, err error) {
	h.done("solved", d, err, "solver", solver, "cost", cost)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("rendering", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("rendered", d, err, "formats", formats)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.Logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "path", path, "status", status, "duration", d.Round(time.Microsecond))
}
