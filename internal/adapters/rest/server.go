package rest

import (
	"context"
	"net/http"

	"trojmiasto-monitor/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(httpPort string, handlers *ListingsHandler, logger port.LoggerPort) *Server {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-Id"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/listings", handlers.GetListings)
		r.Get("/listings/cities", handlers.GetCities)
		r.Get("/listings/map", handlers.GetMapData)
		r.Get("/listings/by-cities", handlers.GetByCities)
		r.Get("/listings/top-expensive", handlers.GetTopExpensive)
		r.Get("/listings/top-affordable", handlers.GetTopAffordable)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + httpPort,
			Handler: r,
		},
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
