package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// httpObserver registra latencia y status de cada request (infrastructure/metrics).
type httpObserver interface {
	ObserveHTTP(method, path, status string, d time.Duration)
}

// MetricsMiddleware mide cada request usando el patrón de la ruta, no la URL concreta.
func MetricsMiddleware(obs httpObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		obs.ObserveHTTP(c.Method(), path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
