package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	var p PipelineHooks = NoopPipelineHooks{}
	p.OnLoadStart(ctx, "target.jpg", "tiles")
	p.OnLoadComplete(ctx, "target.jpg", 10, time.Second, nil)
	p.OnMatrixStart(ctx, "norm-l1", 4, 10)
	p.OnMatrixComplete(ctx, "norm-l1", time.Second, nil)
	p.OnSolveStart(ctx, "hungarian", 4, 10)
	p.OnSolveComplete(ctx, "hungarian", 42, time.Second, nil)
	p.OnRenderStart(ctx, []string{"png"})
	p.OnRenderComplete(ctx, []string{"png"}, time.Second, nil)

	var c CacheHooks = NoopCacheHooks{}
	c.OnCacheHit(ctx, "plan")
	c.OnCacheMiss(ctx, "plan")
	c.OnCacheSet(ctx, "plan", 1024)

	var h HTTPHooks = NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/healthz")
	h.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("default pipeline hooks should be NoopPipelineHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("default cache hooks should be NoopCacheHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("default HTTP hooks should be NoopHTTPHooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogHooks(logger)
	ctx := context.Background()

	h.OnSolveStart(ctx, "auction", 3, 5)
	h.OnSolveComplete(ctx, "auction", 17, time.Millisecond, nil)
	h.OnMatrixComplete(ctx, "lab", time.Millisecond, errors.New("boom"))
	h.OnCacheHit(ctx, "matrix")

	out := buf.String()
	for _, want := range []string{"solving", "solver=auction", "cost=17", "computed cost matrix failed", "error=boom", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
