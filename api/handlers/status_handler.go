package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vgm-archiver/internal/domain"
	"go.uber.org/zap"
)

// StatusHandler serves read-only views over the progress store and the
// failure ledger.
type StatusHandler struct {
	store  domain.ProgressStore
	ledger domain.FailureLedger
	logger *zap.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store domain.ProgressStore, ledger domain.FailureLedger, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{store: store, ledger: ledger, logger: logger}
}

// ListProgress handles GET /api/v1/progress
func (h *StatusHandler) ListProgress(c *gin.Context) {
	records, err := h.store.Load()
	if err != nil {
		h.logger.Error("Failed to load progress records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome := domain.Outcome(c.Query("outcome"))
	if outcome != "" && !domain.ValidOutcome(outcome) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid outcome filter"})
		return
	}

	out := make([]domain.ProgressRecord, 0, len(records))
	for _, r := range records {
		if outcome != "" && r.Outcome != outcome {
			continue
		}
		out = append(out, r)
	}

	c.JSON(http.StatusOK, out)
}

// ListFailures handles GET /api/v1/failures
func (h *StatusHandler) ListFailures(c *gin.Context) {
	entries, err := h.ledger.All()
	if err != nil {
		h.logger.Error("Failed to load failure ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]domain.FailureEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}

	c.JSON(http.StatusOK, out)
}

// GetStats handles GET /api/v1/stats
func (h *StatusHandler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
