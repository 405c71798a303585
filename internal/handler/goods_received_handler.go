package handler

import (
	"net/http"

	"github.com/pesio-ai/be-ap-procurement/internal/repository"
)

func (h *Handler) listGoodsReceived(w http.ResponseWriter, r *http.Request) {
	records, err := h.goodsReceived.ListByPO(r.Context(),
		r.PathValue("number"), r.URL.Query().Get("itemId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

// recordGoodsReceivedRequest updates one line item's goods received record.
type recordGoodsReceivedRequest struct {
	Status         string  `json:"status"`
	SerialNumber   string  `json:"serialNumber,omitempty"`
	AssetTagNumber string  `json:"assetTagNumber,omitempty"`
	ReceivedDate   *string `json:"receivedDate,omitempty"`
}

func (h *Handler) recordGoodsReceived(w http.ResponseWriter, r *http.Request) {
	var req recordGoodsReceivedRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	rec := &repository.GoodsReceivedRecord{
		PurchaseOrderNumber: r.PathValue("number"),
		ItemID:              r.PathValue("itemId"),
		SerialNumber:        req.SerialNumber,
		AssetTagNumber:      req.AssetTagNumber,
		Status:              req.Status,
		ReceivedDate:        req.ReceivedDate,
	}

	updated, err := h.goodsReceived.Record(r.Context(), rec)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, updated)
}
