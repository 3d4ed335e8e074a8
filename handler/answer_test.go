package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deeplooplabs/search-gateway/hook"
	"github.com/deeplooplabs/search-gateway/registry"
	"github.com/deeplooplabs/search-gateway/searchcache"
	"github.com/deeplooplabs/search-gateway/workflow"
)

type echoLLM struct {
	output string
}

func (l *echoLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return l.output, nil
}

func TestAnswerHandler(t *testing.T) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	reg := registry.NewMapKindRegistry()
	reg.SetFallback(&fakeProvider{payload: `{"organic":[{"title":"Go"}]}`, credits: 1})

	llm := &echoLLM{output: `<thinking>summarizing</thinking>Go is a programming language.` +
		`<artifact type="text/markdown" title="Summary">## Go</artifact>`}
	engine := workflow.NewEngine(llm)

	h := NewAnswerHandler(cache, reg, hook.NewRegistry(), nil, engine)

	body := `{"kind":"web","params":{"q":"golang"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/answer", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AnswerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Go is a programming language." {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if resp.Reasoning != "summarizing" {
		t.Errorf("unexpected reasoning: %q", resp.Reasoning)
	}
	if len(resp.Artifacts) != 1 || resp.Artifacts[0].Title != "Summary" {
		t.Errorf("unexpected artifacts: %+v", resp.Artifacts)
	}
	if resp.Metadata.Cached {
		t.Error("expected first answer to be uncached")
	}
}

func TestAnswerHandler_DefaultsToWebKind(t *testing.T) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	reg := registry.NewMapKindRegistry()
	reg.SetFallback(&fakeProvider{payload: `{}`})

	h := NewAnswerHandler(cache, reg, hook.NewRegistry(), nil, workflow.NewEngine(&echoLLM{output: "ok"}))

	body := `{"params":{"q":"golang"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnswerHandler_ReusesSearchCache(t *testing.T) {
	config := searchcache.DefaultConfig()
	config.SweepInterval = 0
	cache := searchcache.New(config)

	prov := &fakeProvider{payload: `{"organic":[]}`}
	reg := registry.NewMapKindRegistry()
	reg.SetFallback(prov)

	hooks := hook.NewRegistry()
	searchHandler := NewSearchHandler(cache, reg, hooks, nil, nil)
	answerHandler := NewAnswerHandler(cache, reg, hooks, nil, workflow.NewEngine(&echoLLM{output: "ok"}))

	// Populate the cache through the search endpoint
	doSearch(t, searchHandler, `{"kind":"web","params":{"q":"shared"}}`)

	body := `{"kind":"web","params":{"q":"shared"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/answer", strings.NewReader(body))
	w := httptest.NewRecorder()
	answerHandler.ServeHTTP(w, req)

	var resp AnswerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Metadata.Cached {
		t.Error("expected answer search to hit the shared cache")
	}
	if prov.calls.Load() != 1 {
		t.Errorf("expected 1 provider call total, got %d", prov.calls.Load())
	}
}
