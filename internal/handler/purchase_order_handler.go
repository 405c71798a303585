package handler

import (
	"net/http"

	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

func (h *Handler) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var po repository.PurchaseOrder
	if err := decodeBody(r, &po); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.purchaseOrders.Create(r.Context(), &po)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) listPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.purchaseOrders.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, orders)
}

func (h *Handler) getPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	po, err := h.purchaseOrders.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, po)
}

type updatePOStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updatePurchaseOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePOStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	po, err := h.purchaseOrders.UpdateStatus(r.Context(), r.PathValue("number"), req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, po)
}

func (h *Handler) incrementDrafts(w http.ResponseWriter, r *http.Request) {
	po, err := h.purchaseOrders.IncrementDraftCount(r.Context(), r.PathValue("number"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, po)
}

func (h *Handler) decrementDrafts(w http.ResponseWriter, r *http.Request) {
	po, err := h.purchaseOrders.DecrementDraftCount(r.Context(), r.PathValue("number"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, po)
}
