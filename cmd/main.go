package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "neurocalm/docs"
	"neurocalm/internal/classifier"
	"neurocalm/internal/config"
	"neurocalm/internal/handlers"
	"neurocalm/internal/logger"
	"neurocalm/internal/metrics"
	"neurocalm/internal/repository"
	"neurocalm/internal/repository/db"
	"neurocalm/internal/server"
	"neurocalm/internal/service"
	"neurocalm/internal/transport"
)

const (
	shutdownTimeout   = 10 * time.Second
	disconnectTimeout = 3 * time.Second
)

// @title        NeuroCalm API
// @version      1.0
// @description  Heart-rate telemetry ingest, live state stream and stress classification.
// @host         localhost:8080
// @BasePath     /
func main() {
	// load configs/config.yml, env overrides and defaults
	cfg, cfgErr := config.Load("configs")

	// init logger
	log := logger.Get(cfg.Log.Level)
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	m := metrics.New()
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Options{
		Factory: transport.NewFactory(transport.FactoryOptions{
			SerialEnabled: cfg.Serial.Enabled,
			Serial: transport.SerialOptions{
				Port:     cfg.Serial.Port,
				BaudRate: cfg.Serial.BaudRate,
			},
			SocketPort:  cfg.Socket.DefaultPort,
			DialTimeout: cfg.Socket.DialTimeout,
		}),
		Log:            log,
		Metrics:        m,
		Classifier:     classifier.New(),
		HistoryLength:  cfg.History.Length,
		DefaultSpO2:    cfg.Calibration.DefaultSpO2,
		MaxLineBytes:   cfg.Telemetry.MaxLineBytes,
		AnalysisDelay:  cfg.Analysis.Delay,
		ReleaseTimeout: cfg.Connection.ReleaseTimeout,
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"), m)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	servers := []*server.Server{{}}

	// start device emulator on its own port, like the firmware
	if cfg.Simulator.Enabled {
		go services.Simulator.Run(ctx, cfg.Simulator.Interval)
		sim := &server.Server{}
		servers = append(servers, sim)
		runHTTPServer(sim, cfg.Simulator.Port, apiHandler.InitDeviceRoutes(), log)
		log.Infow("device emulator started", "port", cfg.Simulator.Port, "interval", cfg.Simulator.Interval)
	}

	// start HTTP server
	runHTTPServer(servers[0], cfg.Port, apiHandler.InitRoutes(), log)
	log.Infow("server started", "port", cfg.Port, "serial_enabled", cfg.Serial.Enabled)

	// graceful shutdown
	waitForShutdown(cancel, services, servers, log)
}

// openDB initializes the session event store.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using in-memory store", "default", db.MemoryPath)
		path = db.MemoryPath
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err, "port", port)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, services *service.Service, servers []*server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// release the device link before the listeners go away
	dctx, dcancel := context.WithTimeout(context.Background(), disconnectTimeout)
	if err := services.Connection.Disconnect(dctx); err != nil {
		log.Warnw("device release incomplete", "err", err)
	}
	dcancel()

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorw("server forced to shutdown", "err", err)
		}
	}
}
