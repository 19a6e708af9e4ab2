package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"neurocalm/internal/models"
	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK           = "ok"
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusCanceled     = "canceled"
	statusCalibrated   = "calibrated"
	statusUpdated      = "updated"

	errConnect         = "failed to connect to device"
	errAlreadyActive   = "a device connection is already active or in progress"
	errUnsupported     = "transport not supported on this host"
	errInvalidBodyPref = "invalid body: "

	disconnectTimeout = 5 * time.Second
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include the current snapshot.
func (h *Handler) respondWithStatusAndState(c *gin.Context, code int, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	resp["state"] = h.services.Monitoring.Snapshot()
	c.JSON(code, resp)
}

// ConnectRequest is the payload of POST /api/v1/device/connect.
type ConnectRequest struct {
	// Transport to use. Allowed: local-link, network-socket
	Transport string `json:"transport" binding:"required" example:"network-socket"`
	// Device address for network-socket: host, host:port or ws(s):// URL
	Endpoint string `json:"endpoint,omitempty" example:"192.168.4.1"`
	// Serial port for local-link; empty picks the first port found
	Port string `json:"port,omitempty" example:"/dev/ttyUSB0"`
}

// CalibrationRequest is the payload of POST /api/v1/device/calibration.
type CalibrationRequest struct {
	// SpO2 percentage stamped on new history points, 80..100
	SpO2 *int `json:"spo2" binding:"required" example:"98"`
}

// HeartRateRequest is the payload of POST /api/v1/device/heart-rate.
type HeartRateRequest struct {
	// Heart rate in BPM, >= 0
	HeartRate *int `json:"heart_rate" binding:"required" example:"72"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Current device state
// @Description  Heart rate, calibration, connection state, analyzing flag, latest analysis and history.
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Router       /api/v1/device/state [get]
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Snapshot())
}

// @Summary      Rolling history
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, points"
// @Router       /api/v1/device/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	points := h.services.Monitoring.History()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(points),
		"points": points,
	})
}

// @Summary      Connect to the device
// @Description  Opens the serial (local-link) or websocket (network-socket) link. Only one link may be active.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      ConnectRequest  true  "Connect payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Success      202   {object}  map[string]string       "connect canceled"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      501   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/device/connect [post]
func (h *Handler) connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "device_connect_bad_body", err)
		return
	}
	kind := models.TransportKind(strings.TrimSpace(req.Transport))

	err := h.services.Connection.Connect(c.Request.Context(), kind, service.ConnectParams{
		Endpoint: req.Endpoint,
		Port:     strings.TrimSpace(req.Port),
	})
	if err == nil {
		h.respondWithStatusAndState(c, http.StatusOK, statusConnected, gin.H{"transport": kind})
		return
	}

	code, msg := connectErrorResponse(err)
	if code == http.StatusAccepted {
		c.JSON(code, gin.H{"status": statusCanceled})
		return
	}
	h.logAndJSONError(c, code, msg, "device_connect_failed", err, "transport", kind, "endpoint", req.Endpoint)
}

// connectErrorResponse maps Connect errors to a status code and user message.
func connectErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrConnectCanceled):
		return http.StatusAccepted, statusCanceled
	case errors.Is(err, service.ErrUnsupportedTransport):
		return http.StatusNotImplemented, errUnsupported
	case errors.Is(err, service.ErrUnknownTransport),
		errors.Is(err, service.ErrMissingEndpoint),
		errors.Is(err, service.ErrMalformedEndpoint):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAlreadyActive):
		return http.StatusConflict, errAlreadyActive
	case errors.Is(err, service.ErrTransportOpen):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, errConnect
	}
}

// @Summary      Disconnect from the device
// @Description  Idempotent. Resets the current heart rate to 0.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Router       /api/v1/device/disconnect [post]
func (h *Handler) disconnect(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), disconnectTimeout)
	defer cancel()
	_ = h.services.Connection.Disconnect(ctx)
	h.respondWithStatusAndState(c, http.StatusOK, statusDisconnected, gin.H{})
}

// @Summary      Set SpO2 calibration
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      CalibrationRequest  true  "Calibration payload"
// @Success      200   {object}  map[string]interface{}  "status, spo2, state"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/device/calibration [post]
func (h *Handler) setCalibration(c *gin.Context) {
	var req CalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "calibration_bad_body", err)
		return
	}
	if err := h.services.Monitoring.SetCalibration(c.Request.Context(), *req.SpO2); err != nil {
		if errors.Is(err, service.ErrCalibrationOutOfRange) {
			h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "calibration_rejected", err)
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to set calibration", "calibration_failed", err)
		return
	}
	h.respondWithStatusAndState(c, http.StatusOK, statusCalibrated, gin.H{"spo2": *req.SpO2})
}

// @Summary      Override the current heart rate
// @Description  Manual value for demonstrations; history is not modified.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      HeartRateRequest  true  "Heart rate payload"
// @Success      200   {object}  map[string]interface{}  "status, heart_rate, state"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/device/heart-rate [post]
func (h *Handler) setHeartRate(c *gin.Context) {
	var req HeartRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "heart_rate_bad_body", err)
		return
	}
	if err := h.services.Monitoring.SetHeartRate(*req.HeartRate); err != nil {
		if errors.Is(err, service.ErrInvalidHeartRate) {
			h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "heart_rate_rejected", err)
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to set heart rate", "heart_rate_failed", err)
		return
	}
	h.respondWithStatusAndState(c, http.StatusOK, statusUpdated, gin.H{"heart_rate": *req.HeartRate})
}
