package service

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Bessima/fieldops/internal/config/db"
	"github.com/Bessima/fieldops/internal/handlers"
	middleware "github.com/Bessima/fieldops/internal/middlewares"
	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/Bessima/fieldops/internal/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger is whatever /healthz checks before reporting ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDependencies struct {
	Importer  handlers.Importer
	Orders    handlers.OrderReader
	Reviewer  handlers.Reviewer
	Routes    handlers.RouteSyncer
	Validator middleware.TokenValidator
	Metrics   *metrics.Registry
	Health    []Pinger
}

type ServerService struct {
	Server *http.Server
	db     *db.DB
}

func NewServerService(rootContext context.Context, address string, db *db.DB) ServerService {
	server := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return rootContext
		},
	}
	return ServerService{Server: server, db: db}
}

func (serverService *ServerService) SetRouter(deps RouterDependencies) {
	serverService.Server.Handler = serverService.getRouter(deps)
}

func (serverService *ServerService) getRouter(deps RouterDependencies) chi.Router {
	router := chi.NewRouter()

	router.Use(logger.RequestLogger)

	health := deps.Health
	if serverService.db != nil {
		health = append([]Pinger{serverService.db}, health...)
	}
	router.Get("/healthz", healthHandler(health))
	router.Handle("/metrics", deps.Metrics.Handler())

	ordersHandler := handlers.NewOrdersHandler(deps.Importer, deps.Orders, deps.Reviewer)
	routesHandler := handlers.NewRoutesHandler(deps.Routes)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(deps.Validator))

		r.Post("/orders/import", ordersHandler.Import)
		r.Post("/orders/upload", ordersHandler.Upload)
		r.Get("/orders", ordersHandler.List)
		r.Get("/orders/counts", ordersHandler.Counts)
		r.Get("/orders/{orderNo}", ordersHandler.Get)
		r.Post("/orders/{orderNo}/{action}", ordersHandler.Review)

		r.Get("/routes", routesHandler.Preview)
		r.Post("/routes/sync", routesHandler.Sync)
	})

	return router
}

func healthHandler(checks []Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger.Log.Warn("health check failed", zap.Error(err))
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	}
}

func (serverService *ServerService) RunServer(serverErr *chan error) {
	if err := serverService.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		*serverErr <- err
	} else {
		*serverErr <- nil
	}
}

func (serverService *ServerService) Shutdown() error {
	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if shutdownErr := serverService.Server.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	return nil
}
