package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pesio-ai/be-ap-procurement/internal/apperrors"
	"github.com/pesio-ai/be-ap-procurement/internal/logger"
	"github.com/pesio-ai/be-ap-procurement/internal/middleware"
	"github.com/pesio-ai/be-ap-procurement/internal/service"
)

// Handler exposes the procurement HTTP API.
type Handler struct {
	invoices       *service.InvoiceService
	purchaseOrders *service.PurchaseOrderService
	goodsReceived  *service.GoodsReceivedService
	safeLimits     *service.SafeLimitService
	approvals      *service.ApprovalService
	templates      *service.TemplateService
	serviceName    string
	version        string
	log            *logger.Logger
}

// New creates a Handler over the given services.
func New(
	invoices *service.InvoiceService,
	purchaseOrders *service.PurchaseOrderService,
	goodsReceived *service.GoodsReceivedService,
	safeLimits *service.SafeLimitService,
	approvals *service.ApprovalService,
	templates *service.TemplateService,
	serviceName, version string,
	log *logger.Logger,
) *Handler {
	return &Handler{
		invoices:       invoices,
		purchaseOrders: purchaseOrders,
		goodsReceived:  goodsReceived,
		safeLimits:     safeLimits,
		approvals:      approvals,
		templates:      templates,
		serviceName:    serviceName,
		version:        version,
		log:            log,
	}
}

// RegisterRoutes attaches all API routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("POST /api/v1/invoices", h.createInvoice)
	mux.HandleFunc("GET /api/v1/invoices", h.listInvoices)
	mux.HandleFunc("GET /api/v1/invoices/{number}", h.getInvoice)
	mux.HandleFunc("PUT /api/v1/invoices/{number}/status", h.updateInvoiceStatus)
	mux.HandleFunc("DELETE /api/v1/invoices/{number}", h.deleteDraftInvoice)
	mux.HandleFunc("POST /api/v1/invoices/{number}/approve", h.approveInvoice)

	mux.HandleFunc("POST /api/v1/invoicetemplates", h.generateTemplate)
	mux.HandleFunc("PUT /api/v1/invoicetemplates/{number}", h.updateDraft)
	mux.HandleFunc("POST /api/v1/invoicetemplates/{number}/finalize", h.finalizeDraft)

	mux.HandleFunc("POST /api/v1/purchaseorders", h.createPurchaseOrder)
	mux.HandleFunc("GET /api/v1/purchaseorders", h.listPurchaseOrders)
	mux.HandleFunc("GET /api/v1/purchaseorders/{number}", h.getPurchaseOrder)
	mux.HandleFunc("PUT /api/v1/purchaseorders/{number}/status", h.updatePurchaseOrderStatus)
	mux.HandleFunc("POST /api/v1/purchaseorders/{number}/drafts/increment", h.incrementDrafts)
	mux.HandleFunc("POST /api/v1/purchaseorders/{number}/drafts/decrement", h.decrementDrafts)

	mux.HandleFunc("GET /api/v1/goodsreceived/po/{number}", h.listGoodsReceived)
	mux.HandleFunc("PUT /api/v1/goodsreceived/po/{number}/items/{itemId}", h.recordGoodsReceived)

	mux.HandleFunc("POST /api/v1/safelimits/check", h.checkSafeLimit)
	mux.HandleFunc("GET /api/v1/safelimits", h.listSafeLimits)
	mux.HandleFunc("GET /api/v1/safelimits/{userName}", h.getSafeLimit)
	mux.HandleFunc("POST /api/v1/safelimits/increase", h.increaseSafeLimit)

	mux.HandleFunc("GET /api/v1/approvalhistory", h.listApprovalHistory)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.serviceName,
		"version": h.version,
	})
}

// errorResponse is the error envelope shared with the sibling services.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			h.log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.Code(err)
	status := statusForCode(code)
	if status >= 500 {
		h.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	h.respondJSON(w, status, errorResponse{Code: code, Message: apperrors.Message(err)})
}

func statusForCode(code string) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidState, apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodePolicyDenied:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeDependencyUnavailable, apperrors.ErrCodeDataIntegrity:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid request body")
	}
	return nil
}
