package http

import (
	"context"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
)

// MetadataHandler serves the documents hosts read to discover the app.
type MetadataHandler struct {
	service      port.MetadataService
	cacheControl string
	logger       *zap.Logger
}

// NewMetadataHandler creates the handler. Responses may be cached by clients for revalidate.
func NewMetadataHandler(service port.MetadataService, revalidate time.Duration, logger *zap.Logger) *MetadataHandler {
	return &MetadataHandler{
		service:      service,
		cacheControl: "public, s-maxage=" + strconv.Itoa(int(revalidate.Seconds())) + ", stale-while-revalidate",
		logger:       logger.Named("MetadataHandler"),
	}
}

// GetPage serves the HTML page with the fc:frame meta tag.
func (h *MetadataHandler) GetPage(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, "text/html; charset=utf-8", h.service.Page)
}

// GetFrame serves the frame embed.
func (h *MetadataHandler) GetFrame(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, "application/json", h.service.FrameEmbed)
}

// GetManifest serves /.well-known/farcaster.json.
func (h *MetadataHandler) GetManifest(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, "application/json", h.service.Manifest)
}

func (h *MetadataHandler) serve(ctx *fasthttp.RequestCtx, contentType string, render func(context.Context) ([]byte, error)) {
	body, err := render(ctx)
	if err != nil {
		h.logger.Error("Failed to render metadata", zap.ByteString("uri", ctx.RequestURI()), zap.Error(err))
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType(contentType)
	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, h.cacheControl)
	ctx.SetBody(body)
}
