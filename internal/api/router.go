package api

import (
	"net/http"

	"github.com/ayo6706/payment-notification/internal/api/handler"
	"github.com/ayo6706/payment-notification/internal/api/middleware"
	"github.com/ayo6706/payment-notification/internal/api/spec"
	"github.com/ayo6706/payment-notification/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

const operatorRateLimitRPS = 20

// Dependencies are the collaborators the HTTP surface needs. Outcomes, DB and Redis are
// nil when the corresponding backend is not configured.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Notifications handler.NotificationProcessor
	Outcomes      handler.OutcomeLister
	DB            *pgxpool.Pool
	Redis         redis.Cmdable
}

type Router struct {
	deps Dependencies
}

func NewRouter(deps Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Router{deps: deps}
}

func (api *Router) Routes() chi.Router {
	cfg := api.deps.Config
	logger := api.deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RecoverMiddleware(logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.deps.DB, api.deps.Redis)
	notificationHandler := handler.NewNotificationHandler(api.deps.Notifications)

	// Operational routes
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Provider webhook
	r.With(middleware.WebhookRateLimiter(cfg.WebhookRateLimitRPS)).Post("/notifications", notificationHandler.Receive)

	// Operator routes
	if cfg.OperatorRoutesEnabled() && api.deps.Outcomes != nil {
		auth := middleware.NewOperatorAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
		outcomeHandler := handler.NewOutcomeHandler(api.deps.Outcomes)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Use(middleware.OperatorRateLimiter(operatorRateLimitRPS))
			r.Get("/v1/payments/{reference}/outcomes", outcomeHandler.ListByReference)
		})
	}

	return r
}
