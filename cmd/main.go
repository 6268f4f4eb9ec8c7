package main

import (
	"flag"
	"os"
	"time"

	"spinwheel/internal/config"
	"spinwheel/internal/handlers"
	"spinwheel/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

func main() {
	portFlag := flag.String("port", "", "Port to listen on (overrides PORT env var)")
	flag.Parse()

	// 1. Load configuration from .env and the environment
	cfg := config.Load()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// 2. Initialize logging
	defer logger.Init("spinwheel", false, false, os.Stderr).Close()

	// 3. Initialize the Wheel Service
	wheelService := services.NewWheelService()

	// 4. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(wheelService, cfg.TenantCookie)

	// 5. Set up the Gin router
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if cfg.Verbose {
			logger.Infof("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		}
	})

	// 6. Register public routes (before middleware)
	httpHandler.RegisterPublicRoutes(r)

	// 7. Group routes that require tenant identification and apply middleware
	tenantRoutes := r.Group("/")
	tenantRoutes.Use(httpHandler.TenantMiddleware())
	httpHandler.RegisterTenantRoutes(tenantRoutes)

	// 8. Start the background janitor to clean up inactive sessions
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			if n := wheelService.CleanUpInactiveSessions(cfg.SessionIdle); n > 0 {
				logger.Infof("Removed %d inactive sessions, %d remain.", n, wheelService.SessionCount())
			}
		}
	}()

	// 9. Run the server
	logger.Infof("Server starting on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("Failed to run server: %v", err)
	}
}
