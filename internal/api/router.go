// Package api assembles the HTTP server around the core packages.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pfline/internal/api/handlers"
	"pfline/internal/api/middleware"
	"pfline/internal/data"
	"pfline/internal/pfline"
)

// Options are the dependencies of the router.
type Options struct {
	Logger      *zap.Logger
	Builder     pfline.Builder
	CORSOrigins []string
	// GridStatus is optional; without it /api/v1/prices answers 503.
	GridStatus *data.GridStatusClient
	// Registry receives the HTTP metrics and is served on /metrics.
	// A nil Registry gets a fresh one.
	Registry *prometheus.Registry
	// StaticDir, when it exists, is served as a single-page app.
	StaticDir string
}

// NewRouter returns the configured engine.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := middleware.NewMetrics(reg)

	router := gin.New()
	router.Use(middleware.Logger(logger, "/health", "/metrics"))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(opts.CORSOrigins...))
	router.Use(metrics.Handler())

	core := handlers.NewCoreHandler(opts.Builder, metrics)
	prices := handlers.NewPricesHandler(opts.GridStatus, logger, metrics)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/changefreq", core.ChangeFreq)
		v1.POST("/interop", core.Interop)
		v1.POST("/pfline", core.Pfline)
		v1.GET("/frequencies", handlers.ListFrequencies)
		v1.GET("/prices", prices.GetPrices)
	}

	serveStatic(router, opts.StaticDir, logger)
	return router
}

// serveStatic serves index.html for every non-API route (SPA routing).
func serveStatic(router *gin.Engine, dir string, logger *zap.Logger) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	}
	if dir == "" {
		router.NoRoute(notFound)
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Info("static directory not found, skipping static file serving", zap.String("dir", dir))
		router.NoRoute(notFound)
		return
	}
	router.Static("/assets", filepath.Join(dir, "assets"))
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
	logger.Info("serving static files", zap.String("dir", dir))
}
