package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/inmet-io/inmet-alert-gateway/pkg/api"
	"github.com/inmet-io/inmet-alert-gateway/pkg/config"
	"github.com/inmet-io/inmet-alert-gateway/pkg/inmet"
	"github.com/inmet-io/inmet-alert-gateway/pkg/services"
)

// @title INMET Alert Gateway API
// @version 1.0
// @description API for tracking INMET weather alerts for a municipality
// @BasePath /api

func main() {
	// Configure Log Level from Environment Variable
	logLevelStr := os.Getenv("LOG_LEVEL")
	switch strings.ToLower(logLevelStr) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel) // Default to Info
	}
	logrus.Infof("Log level set to: %s", logrus.GetLevel().String())

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Set up the INMET API client
	client := inmet.NewClient(&cfg.Inmet)

	// Resolve the configured municipality for its coordinates and label.
	// The home coordinates stay as configured; the city coordinates anchor
	// the alert entities and the distance attribute.
	cityLat := cfg.Feed.HomeLatitude
	cityLon := cfg.Feed.HomeLongitude
	cityLabel := cfg.Feed.Geocode

	resolveCtx, cancelResolve := context.WithTimeout(context.Background(), 30*time.Second)
	cities, err := client.SearchCity(resolveCtx, cfg.Feed.Geocode)
	cancelResolve()
	if err != nil || len(cities) == 0 {
		logrus.Warnf("Failed to resolve municipality %s, falling back to configured coordinates: %v", cfg.Feed.Geocode, err)
	} else {
		cityLat = cities[0].Latitude
		cityLon = cities[0].Longitude
		cityLabel = cities[0].Label
	}
	logrus.Infof("Monitoring alerts for %s (geocode %s)", cityLabel, cfg.Feed.Geocode)

	// Initialize the registry and the feed entity manager
	registry := services.NewAlertRegistry(cfg.Feed.Geocode, cityLat, cityLon, cfg.Feed.HomeLatitude, cfg.Feed.HomeLongitude)
	scanInterval := time.Duration(cfg.Feed.ScanIntervalMinutes) * time.Minute
	manager := services.NewEntityManager(client, registry, cfg.Feed.Geocode, scanInterval)

	// Start the scheduler: initial update now, then one cycle per interval
	manager.Start(context.Background())

	// Set up the Echo server
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// API routes
	apiHandler := api.NewAPIHandler(manager, registry, client)
	apiHandler.SetupRoutes(e)

	// Prometheus metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Swagger documentation
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))

	// Create HTTP server
	// Use PORT environment variable if available, otherwise use config
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Stop scheduling feed updates; an in-flight cycle finishes on its own
	manager.Stop()
	logrus.Info("Feed manager shutdown complete")

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Shutdown the server
	if err := e.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}
