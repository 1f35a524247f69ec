package http

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Handlers groups the route handlers.
type Handlers struct {
	Actions       *ActionHandler
	Notifications *NotificationHandler
	Metadata      *MetadataHandler
}

// RegisterRoutes sets up the application routes, health and metrics.
func RegisterRoutes(r *router.Router, h Handlers, logger *zap.Logger) {
	logger.Info("Setting up application-specific routes...")

	r.GET("/", h.Metadata.GetPage)
	r.GET("/api/frame", h.Metadata.GetFrame)
	r.GET("/.well-known/farcaster.json", h.Metadata.GetManifest)

	r.POST("/api/send-notification", h.Notifications.SendNotification)

	r.GET("/api/state", h.Actions.GetState)
	r.POST("/api/actions/{action}", h.Actions.PostAction)

	logger.Info("Setting up health check and metrics routes...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	logger.Info("All routes registered.")
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(logger *zap.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		logger.Info("Request handled",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
