package handler

import (
	"net/http"

	"github.com/pesio-ai/be-ap-procurement/internal/client"
)

func (h *Handler) checkSafeLimit(w http.ResponseWriter, r *http.Request) {
	var req client.CheckRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	canApprove, err := h.safeLimits.CheckApproval(r.Context(), req.UserName, req.InvoiceAmount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, client.CheckResponse{CanApprove: canApprove})
}

func (h *Handler) listSafeLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.safeLimits.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, limits)
}

func (h *Handler) getSafeLimit(w http.ResponseWriter, r *http.Request) {
	limit, err := h.safeLimits.GetByUserName(r.Context(), r.PathValue("userName"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, limit)
}

// increaseSafeLimitRequest raises a user's approval ceiling. Justification is
// recorded in the audit log only.
type increaseSafeLimitRequest struct {
	UserID        string `json:"userId"`
	NewLimit      int64  `json:"newLimit"`
	Justification string `json:"justification,omitempty"`
}

func (h *Handler) increaseSafeLimit(w http.ResponseWriter, r *http.Request) {
	var req increaseSafeLimitRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	limit, err := h.safeLimits.IncreaseLimit(r.Context(), req.UserID, req.NewLimit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if req.Justification != "" {
		h.log.Info().
			Str("user_id", limit.UserID).
			Str("justification", req.Justification).
			Msg("Safe limit increase justification")
	}

	h.respondJSON(w, http.StatusOK, limit)
}
