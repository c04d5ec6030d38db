package controller

import (
	"context"
	"net/http"
	"time"

	httpdto "github.com/codetrust-ai/codetrust-api/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db pinger
}

func NewHealthController(db pinger) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Healthz(ctx echo.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		logrus.WithError(err).Warn("Health check failed")
		return ctx.JSON(http.StatusServiceUnavailable, httpdto.HealthResponse{Status: "unavailable"})
	}
	return ctx.JSON(http.StatusOK, httpdto.HealthResponse{Status: "ok"})
}
