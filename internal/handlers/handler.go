package handlers

import (
	"neurocalm/internal/logger"
	"neurocalm/internal/metrics"
	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewHandler constructs a new HTTP handler with dependencies.
// m may be nil; /metrics then answers 404.
func NewHandler(services *service.Service, log *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{services: services, log: log, metrics: m}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAPIRoutes(router)

	// Live push of readings and state changes on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

// InitDeviceRoutes builds the router for the device emulator: the stream
// is served at "/" like the firmware's websocket.
func (h *Handler) InitDeviceRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/", h.deviceStream)
	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerDeviceRoutes(api)
		h.registerAnalysisRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.GET("/state", h.getState)
		device.GET("/history", h.getHistory)
		// Body example: {"transport":"network-socket","endpoint":"192.168.4.1"}
		device.POST("/connect", h.connect)
		device.POST("/disconnect", h.disconnect)
		device.POST("/calibration", h.setCalibration)
		device.POST("/heart-rate", h.setHeartRate)
	}
}

func (h *Handler) registerAnalysisRoutes(api *gin.RouterGroup) {
	api.POST("/analysis", h.runAnalysis)
	api.GET("/analysis", h.getAnalysis)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	api.GET("/logs", h.getLogs)
}
