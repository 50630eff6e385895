package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"dronewatch/internal/http/handlers"
	"dronewatch/internal/http/middleware"
	"dronewatch/internal/service"
)

// RouterDeps carries the services the HTTP API is built from.
type RouterDeps struct {
	Ingest  *service.IngestService
	Queries *service.QueryService
	Zones   *service.ZoneService

	AuthSecret string
	Logger     *zap.Logger
}

// NewRouter builds the chi router with the full API surface.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	admin := middleware.Auth(deps.AuthSecret)

	telemetryHandler := handlers.NewTelemetryHandler(deps.Ingest, deps.Logger)
	droneHandler := handlers.NewDroneHandler(deps.Queries, admin, deps.Logger)
	zoneHandler := handlers.NewZoneHandler(deps.Zones, admin, deps.Logger)

	r.Get("/health", handlers.NewHealthHandler())

	r.Route("/api/v1", func(api chi.Router) {
		telemetryHandler.RegisterRoutes(api)
		droneHandler.RegisterRoutes(api)
		zoneHandler.RegisterRoutes(api)
	})

	return r
}
