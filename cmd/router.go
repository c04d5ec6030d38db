package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/controller"
	httpdto "github.com/codetrust-ai/codetrust-api/app/dto/http"
	"github.com/codetrust-ai/codetrust-api/app/guard"
	"github.com/codetrust-ai/codetrust-api/app/middleware"
	"github.com/codetrust-ai/codetrust-api/app/oauth"
	"github.com/codetrust-ai/codetrust-api/app/service"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var appShellPages = []string{"/dashboard", "/analyze", "/history", "/reports", "/settings", "/support"}

type pinger interface {
	Ping(ctx context.Context) error
}

type httpDeps struct {
	cfg             *config.Config
	registry        *prometheus.Registry
	db              pinger
	sessions        *service.SessionManager
	resetService    service.PasswordResetService
	userAuthService service.UserAuthService
	providers       *oauth.Registry
}

func newHTTPServer(deps httpDeps) *echo.Echo {
	cfg := deps.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			if session, ok := middleware.SessionFromContext(c); ok {
				fields["user_id"] = session.UserID
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.App.BaseURL},
		AllowCredentials: true,
	}))

	sessionMiddleware := middleware.NewSessionMiddleware(deps.sessions, cfg.Session.CookieName)
	e.Use(sessionMiddleware.Resolve)
	e.Use(middleware.AccessGuard(guard.New(cfg.Guard.ProtectedPaths)))

	healthController := controller.NewHealthController(deps.db)
	e.GET("/healthz", healthController.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))

	resetController := controller.NewPasswordResetController(deps.resetService)
	userController := controller.NewUserAuthController(deps.userAuthService, cfg.Session)
	oauthController := controller.NewOAuthController(deps.providers, deps.userAuthService, cfg.Session)
	limiter := authRateLimiter(cfg.RateLimit)

	auth := e.Group("/api/auth")
	auth.POST("/forgot-password", resetController.ForgotPassword, limiter)
	auth.POST("/reset-password", resetController.ResetPassword, limiter)
	auth.POST("/signup", userController.Signup, limiter)
	auth.POST("/login", userController.Login, limiter)
	auth.POST("/logout", userController.Logout)
	auth.GET("/session", userController.Session)
	auth.GET("/signin/:provider", oauthController.SignIn)
	auth.GET("/callback/:provider", oauthController.Callback)

	user := e.Group("/api/user", sessionMiddleware.RequireSession)
	user.GET("/me", userController.Me)
	user.PATCH("/profile", userController.UpdateProfile)

	shell := controller.NewAppShellController()
	for _, page := range appShellPages {
		e.GET(page, shell.Page)
	}

	return e
}

// authRateLimiter limits each client IP on the unauthenticated auth
// endpoints. A zero budget disables it.
func authRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.AuthPerMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.AuthPerMinute) / 60),
		Burst:     cfg.AuthPerMinute,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			logrus.WithField("remote_ip", identifier).Warn("Auth rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, httpdto.ErrorResponse{Error: "too many requests, please try again later"})
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "unable to identify client"})
		},
	})
}
