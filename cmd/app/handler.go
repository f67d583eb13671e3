package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"hello-world-aws/internal/render"
)

// Handler answers Lambda invocations with the rendered page.
type Handler struct {
	renderer *render.Renderer
	logger   *slog.Logger
}

// NewHandler returns a Handler rendering with renderer and logging to logger.
func NewHandler(renderer *render.Renderer, logger *slog.Logger) *Handler {
	return &Handler{renderer: renderer, logger: logger}
}

// Invoke accepts any JSON payload so that unexpected event shapes still render
// the page instead of failing in the runtime's decoder.
func (h *Handler) Invoke(ctx context.Context, payload json.RawMessage) (render.Response, error) {
	req := render.ParseRequest(render.DecodeEnvelope(payload))

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("source_ip", req.SourceIP),
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		attrs = append(attrs, slog.String("request_id", lc.AwsRequestID))
	}
	h.logger.Info("Request received", attrs...)

	return h.renderer.RenderRequest(req), nil
}
