package http

import (
	"context"
	"net/http"

	"backtest-catalog/config"
	"backtest-catalog/internal/dto"
	"backtest-catalog/internal/metrics"
	"backtest-catalog/internal/service"
	"backtest-catalog/pkg/cache"
	"backtest-catalog/pkg/logger"
	"backtest-catalog/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
	log       *logger.Logger
	sessions  *SessionStore
	cfg       *config.Config
}

func NewHttpAPIHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	echo *echo.Echo,
	validator *goValidator.Validate,
	service *service.Service,
	sessionCache cache.Cache,
) *HttpAPIHandler {
	echo.Renderer = NewTemplateRenderer()
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
		log:       log,
		sessions:  NewSessionStore(sessionCache, cfg.Session.CookieName, cfg.Session.TTL),
		cfg:       cfg,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.HideBanner = true
	h.echo.Use(echoMiddleware.Recover())
	h.echo.Use(echoMiddleware.RequestID())
	h.echo.Use(h.requestLogger)

	h.echo.GET("/healthz", h.health)
	h.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	limited := h.echo.Group("", middleware.NewRateLimiterMiddleware(middleware.RateLimiterConfig{
		Rate:      h.cfg.RateLimit.Rate,
		Burst:     h.cfg.RateLimit.Burst,
		ExpiresIn: h.cfg.RateLimit.ExpiresIn,
	}))
	h.SetupCatalog(limited)
	h.SetupAPI(limited.Group("/api/v1"))
}

// requestLogger stores a logger carrying the request id in the request context.
func (h *HttpAPIHandler) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		ctx := logger.NewContext(req.Context(), h.log.With(logger.StringField("request_id", rid)))
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (h *HttpAPIHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", nil))
}
