package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/heracore/backend/api/transport"
	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/pkg/httpcontext"
	"github.com/heracore/backend/repository"
)

type OrganizationHandler struct {
	baseHandler
	orgs repository.OrganizationRepository
	txns repository.TransactionRepository
}

func NewOrganizationHandler(orgs repository.OrganizationRepository, txns repository.TransactionRepository, adapter *httpcontext.Adapter, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		orgs:        orgs,
		txns:        txns,
	}
}

// @Summary Create organization
// @Tags organizations
// @Router /api/v1/organizations [post]
func (h *OrganizationHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.OrganizationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidationFailed), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	org := &domain.Organization{
		ID:       req.ID,
		Name:     req.Name,
		Code:     req.Code,
		Type:     req.Type,
		Status:   req.Status,
		Settings: req.Settings,
	}
	created, err := h.orgs.Create(stdCtx, org)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get organization
// @Tags organizations
// @Router /api/v1/organizations/{id} [get]
func (h *OrganizationHandler) Get(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidationFailed), "missing organization id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	org, err := h.orgs.GetByID(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, org)
}

// @Summary Get a transaction with its lines
// @Tags organizations
// @Router /api/v1/organizations/{id}/transactions/{txn} [get]
func (h *OrganizationHandler) GetTransaction(ctx *fasthttp.RequestCtx) {
	orgID, _ := ctx.UserValue("id").(string)
	txnID, _ := ctx.UserValue("txn").(string)
	if orgID == "" || txnID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeValidationFailed), "missing organization or transaction id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	txn, err := h.txns.GetByID(stdCtx, orgID, txnID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	lines, err := h.txns.ListLines(stdCtx, orgID, txnID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"transaction": txn,
		"lines":       lines,
	})
}
