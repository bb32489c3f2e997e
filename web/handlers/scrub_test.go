package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nisc/LLM-output-scrub/config"
	"github.com/nisc/LLM-output-scrub/nlp"
	"github.com/nisc/LLM-output-scrub/scrub"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	cfg := &config.Config{
		NLP: config.NLPConfig{Provider: "heuristic", WindowWidth: 500},
		Categories: map[string]config.Category{
			config.CategoryEmDashes: {
				Enabled:        true,
				ContextualMode: true,
				Replacements:   map[string]string{config.EmDash: "-"},
			},
		},
	}
	manager := nlp.NewModelManager(func() (nlp.FeatureProvider, error) {
		return nlp.NewHeuristicProvider(), nil
	}, 0, logger)
	t.Cleanup(manager.Close)
	stats := nlp.NewStats("", manager, nil, logger)
	engine := nlp.NewEngine(manager, stats, cfg.NLP.WindowWidth, logger)
	h := NewScrubHandler(scrub.New(cfg, engine, logger), stats, nil, cfg, logger)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/scrub", h.Scrub)
	r.GET("/api/stats", h.Stats)
	return r
}

func TestScrubEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scrub", strings.NewReader(`{"text":"self—driving car"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp scrubResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Output != "self-driving car" {
		t.Errorf("output = %q, want %q", resp.Output, "self-driving car")
	}
	if resp.DashesScrubbed != 1 {
		t.Errorf("dashes_scrubbed = %d, want 1", resp.DashesScrubbed)
	}
}

func TestScrubEndpointRejectsMissingText(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scrub", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStatsEndpointWithoutStore(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scrub", strings.NewReader(`{"text":"The range is 1—5."}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var total int64
	if err := json.Unmarshal(resp["total_dashes"], &total); err != nil || total != 1 {
		t.Errorf("total_dashes = %s, want 1", resp["total_dashes"])
	}
	// Without a configured store the persisted totals stay absent.
	if _, ok := resp["stored_by_category"]; ok {
		t.Error("stored_by_category present without a decision store")
	}
}
