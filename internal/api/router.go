package api

import (
	"context"
	"net/http"
	"time"

	"directory-service/internal/entity"
	"directory-service/internal/metrics"
	"directory-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Options wires the HTTP server. Metrics and Checks are optional.
type Options struct {
	Catalog   *service.Catalog
	Users     *service.UserService
	Tokens    TokenVerifier
	Metrics   *metrics.Metrics
	Checks    map[string]HealthCheck
	Logger    zerolog.Logger
	RateLimit float64
	RateBurst int
}

// NewServer builds the echo instance with middleware and every route registered.
func NewServer(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(RequestID())
	e.Use(RequestLogger(opts.Logger))
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}
	e.Use(RateLimiter(opts.RateLimit, opts.RateBurst))

	for _, svc := range opts.Catalog.Services() {
		h := NewResourceHandler(svc)
		base := "/" + svc.Descriptor().Collection
		e.GET(base, h.List)
		e.POST(base, h.Create)
		e.GET(base+"/:id", h.Get)
		e.PUT(base+"/:id", h.Replace)
		e.DELETE(base+"/:id", h.Delete)
	}

	users := NewUserHandler(opts.Users)
	e.POST("/users", users.CreateUser)
	e.POST("/users/login", users.Login)

	auth := RequireAuth(opts.Tokens)
	e.GET("/users/:userID", users.GetUser, auth)
	for _, relation := range entity.Relations {
		e.GET("/users/:userID/"+relation, users.OwnedResources(relation), auth)
	}

	e.GET("/health", health(opts.Checks))
	e.RouteNotFound("/*", notFound)

	return e
}

func health(checks map[string]HealthCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		results := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Error().Err(err).Msgf("Health check %s failed", name)
				results[name] = "unavailable"
				status = "degraded"
				continue
			}
			results[name] = "ok"
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status":  status,
			"service": "directory-service",
			"checks":  results,
			"time":    time.Now().Format(time.RFC3339),
		})
	}
}
