package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/heracore/backend/api/transport"
	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/pkg/httpcontext"
	"github.com/heracore/backend/usecase/invoke"
)

type ProcedureHandler struct {
	baseHandler
	adapter *invoke.Adapter
}

func NewProcedureHandler(adapter *invoke.Adapter, ctxAdapter *httpcontext.Adapter, logger *zap.Logger) *ProcedureHandler {
	return &ProcedureHandler{
		baseHandler: newBaseHandler(ctxAdapter, logger),
		adapter:     adapter,
	}
}

// @Summary Invoke a universal procedure by smart code
// @Tags procedures
// @Router /api/v1/procedures/invoke [post]
func (h *ProcedureHandler) Invoke(ctx *fasthttp.RequestCtx) {
	var req transport.InvokeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidationFailed), "invalid payload", nil))
		return
	}

	opts := invoke.Options{
		IdempotencyKey: req.Options.IdempotencyKey,
		CorrelationID:  req.Options.CorrelationID,
		OrganizationID: req.Options.OrganizationID,
		UserID:         string(ctx.Request.Header.Peek("X-User-ID")),
		TimeoutMs:      req.Options.TimeoutMs,
	}
	if opts.OrganizationID == "" {
		opts.OrganizationID = string(ctx.Request.Header.Peek("X-Organization-ID"))
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	// failure travels inside the result body; the transport status stays 200
	result := h.adapter.Invoke(stdCtx, req.SmartCode, req.Payload, opts)

	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusOK)
	body, _ := json.Marshal(result)
	ctx.SetBody(body)
}
