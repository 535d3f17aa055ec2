package server

import (
	"github.com/nulzo/model-registry-api/internal/server/middleware"
	v1 "github.com/nulzo/model-registry-api/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing("model-registry-api"))
	}

	// Health Check (Public)
	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	// API V1 Group
	api := s.router.Group("/api/v1")

	if s.config.Auth.Enabled {
		api.Use(middleware.Auth(s.config.Auth.APIKeys))
	}

	rl := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
	api.Use(rl.Middleware())

	providerHandler := v1.NewProviderHandler(s.service)
	modelHandler := v1.NewModelHandler(s.service)

	providers := api.Group("/model-providers")
	{
		providers.GET("", providerHandler.List)
		providers.GET("/with-models", providerHandler.ListWithModels)
		providers.POST("", providerHandler.Create)
		providers.GET("/:id", providerHandler.Get)
		providers.GET("/:id/with-models", providerHandler.GetWithModels)
		providers.PUT("/:id", providerHandler.Update)
		providers.DELETE("/:id", providerHandler.Delete)

		providers.GET("/:id/models", modelHandler.List)
		providers.POST("/:id/models", modelHandler.Create)
		providers.GET("/:id/models/:model_id", modelHandler.Get)
		providers.PUT("/:id/models/:model_id", modelHandler.Update)
		providers.DELETE("/:id/models/:model_id", modelHandler.Delete)
	}
}
