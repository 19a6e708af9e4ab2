package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLoadLogs    = "failed to load session events"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
	endOfDay       = 24*time.Hour - time.Nanosecond
)

var errBadLogQuery = errors.New("bad log query")

// @Summary      List session events
// @Description  Connect, disconnect, error, analysis and calibration events of the running session, oldest first. 'from'/'to' accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range; date-only means end of day"  example(2025-08-31)
// @Param        type  query   string  false  "Event type"  Enums(CONNECT,DISCONNECT,ERROR,ANALYSIS,CALIBRATION)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	filter, msg, err := parseLogQuery(c)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, msg, "logs_bad_query", err)
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	switch {
	case err == nil:
	case service.IsInvalidFilter(err):
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "logs_bad_filter", err)
		return
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadLogs, "logs_list_failed", err,
			"from", filter.From, "to", filter.To, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// parseLogQuery reads from/to/type. Range and type validation is left to
// the event log service; only unparseable times are rejected here.
func parseLogQuery(c *gin.Context) (service.LogFilter, string, error) {
	f := service.LogFilter{Type: c.Query("type")}
	if qs := c.Query("from"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errFromInvalid, fmt.Errorf("%w: %w", errBadLogQuery, err)
		}
		f.From = t
	}
	if qs := c.Query("to"); qs != "" {
		t, err := parseQueryTime(qs)
		if err != nil {
			return f, errToInvalid, fmt.Errorf("%w: %w", errBadLogQuery, err)
		}
		if !strings.ContainsAny(qs, "T ") {
			t = t.Add(endOfDay)
		}
		f.To = t
	}
	return f, "", nil
}

// parseQueryTime accepts RFC3339, date-time and date-only values, in UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}
