package handler

import (
	"net/http"

	"github.com/pesio-ai/be-ap-procurement/internal/client"
	"github.com/pesio-ai/be-ap-procurement/internal/repository"
	"github.com/pesio-ai/be-ap-procurement/internal/service"
)

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var invoice repository.Invoice
	if err := decodeBody(r, &invoice); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.invoices.Create(r.Context(), &invoice)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, invoice)
}

func (h *Handler) updateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req client.UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	invoice, err := h.invoices.UpdateStatus(r.Context(),
		r.PathValue("number"), req.Status, req.ExpectedStatus, req.UpdatedBy)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, invoice)
}

func (h *Handler) deleteDraftInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.DeleteDraft(r.Context(), r.PathValue("number")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// generateTemplateRequest is the draft generation payload.
type generateTemplateRequest struct {
	PurchaseOrderNumber string                     `json:"poNumber"`
	Overrides           *service.TemplateOverrides `json:"overrides,omitempty"`
}

func (h *Handler) generateTemplate(w http.ResponseWriter, r *http.Request) {
	var req generateTemplateRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	draft, err := h.templates.GenerateTemplate(r.Context(), req.PurchaseOrderNumber, req.Overrides)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, draft)
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	var overrides service.TemplateOverrides
	if err := decodeBody(r, &overrides); err != nil {
		h.respondError(w, r, err)
		return
	}

	draft, err := h.templates.UpdateDraft(r.Context(), r.PathValue("number"), &overrides)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, draft)
}

func (h *Handler) finalizeDraft(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.templates.Finalize(r.Context(), r.PathValue("number"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, invoice)
}
