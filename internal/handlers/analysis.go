package handlers

import (
	"errors"
	"net/http"

	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errAnalysisInProgress = "an analysis is already in progress"
	errNoAnalysis         = "no analysis has been run yet"
)

// @Summary      Run a stress analysis
// @Description  Classifies the current heart rate. Blocks for the configured analysis delay.
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  models.ClassificationResult
// @Failure      409  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/analysis [post]
func (h *Handler) runAnalysis(c *gin.Context) {
	res, err := h.services.Analysis.Analyze(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrAnalysisInProgress) {
			h.logAndJSONError(c, http.StatusConflict, errAnalysisInProgress, "analysis_rejected", err)
			return
		}
		h.logAndJSONError(c, http.StatusServiceUnavailable, "analysis aborted", "analysis_aborted", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Latest analysis
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  models.ClassificationResult
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/analysis [get]
func (h *Handler) getAnalysis(c *gin.Context) {
	res, ok := h.services.Analysis.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoAnalysis})
		return
	}
	c.JSON(http.StatusOK, res)
}
