// internal/wire/wire.go
package wire

import (
	"net/http"

	"booking-engine/internal/adaptor"
	"booking-engine/internal/data/repository"
	"booking-engine/internal/usecase"
	"booking-engine/pkg/authz"
	"booking-engine/pkg/middleware"
	"booking-engine/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services the CLI jobs reuse.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes.
func Wiring(repo *repository.Repository, config *utils.Config, deps usecase.Deps, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, deps, logger)
	handler := adaptor.NewHandler(service, config.Webhook.MaxBodyBytes, logger)
	policy := authz.NewRolePolicy(config.Authz.Roles)

	router := setupRouter(handler, policy, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	policy authz.Policy,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireBooking(r, handler.Booking)
	wireWebhook(r, handler.Webhook)
	wireAdmin(r, handler.Admin, policy, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
