package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nisc/LLM-output-scrub/config"
	"github.com/nisc/LLM-output-scrub/database"
	scruberrors "github.com/nisc/LLM-output-scrub/errors"
	"github.com/nisc/LLM-output-scrub/nlp"
	"github.com/nisc/LLM-output-scrub/scrub"
)

type ScrubHandler struct {
	scrubber *scrub.Scrubber
	stats    *nlp.Stats
	store    *database.DecisionStore
	cfg      *config.Config
	logger   *zap.Logger
}

// NewScrubHandler builds the API handler set. store may be nil when no
// database is configured.
func NewScrubHandler(scrubber *scrub.Scrubber, stats *nlp.Stats, store *database.DecisionStore, cfg *config.Config, logger *zap.Logger) *ScrubHandler {
	return &ScrubHandler{scrubber: scrubber, stats: stats, store: store, cfg: cfg, logger: logger}
}

type scrubRequest struct {
	Text string `json:"text" binding:"required"`
}

type scrubResponse struct {
	Output         string `json:"output"`
	DashesScrubbed int    `json:"dashes_scrubbed"`
	CharsReplaced  int    `json:"chars_replaced"`
	UsedContext    bool   `json:"used_context"`
}

// Scrub handles POST /api/scrub.
func (h *ScrubHandler) Scrub(c *gin.Context) {
	var req scrubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid text field"})
		return
	}

	res, err := h.scrubber.Scrub(req.Text)
	if err != nil {
		if scruberrors.IsInvalidInput(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Scrub failed",
			zap.String("request_id", c.GetString("requestID")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scrub failed"})
		return
	}

	c.JSON(http.StatusOK, scrubResponse{
		Output:         res.Output,
		DashesScrubbed: res.DashCount,
		CharsReplaced:  res.CharCount,
		UsedContext:    res.UsedContext,
	})
}

type statsResponse struct {
	nlp.StatsSnapshot
	StoredByCategory map[string]int64 `json:"stored_by_category,omitempty"`
}

// Stats handles GET /api/stats. When a decision store is configured the
// persisted per-category totals ride along with the live snapshot.
func (h *ScrubHandler) Stats(c *gin.Context) {
	resp := statsResponse{StatsSnapshot: h.stats.Snapshot()}
	if h.store != nil {
		counts, err := h.store.CategoryCounts(c.Request.Context())
		if err != nil {
			h.logger.Warn("Failed to read stored decision counts",
				zap.String("request_id", c.GetString("requestID")),
				zap.Error(err))
		} else {
			resp.StoredByCategory = counts
		}
	}
	c.JSON(http.StatusOK, resp)
}

type categoryToggle struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Categories handles GET /api/categories.
func (h *ScrubHandler) Categories(c *gin.Context) {
	out := make(map[string]bool)
	for _, name := range h.cfg.CategoryNames() {
		out[name] = h.cfg.IsCategoryEnabled(name)
	}
	c.JSON(http.StatusOK, out)
}

// SetCategory handles PUT /api/categories/:name.
func (h *ScrubHandler) SetCategory(c *gin.Context) {
	var req categoryToggle
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing enabled field"})
		return
	}
	name := c.Param("name")
	if err := h.cfg.SetCategoryEnabled(name, *req.Enabled); err != nil {
		h.logger.Error("Failed to persist category toggle",
			zap.String("category", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist change"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": name, "enabled": *req.Enabled})
}

// Health handles GET /healthz.
func (h *ScrubHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
