package handler

import (
	"net/http"
)

// approveRequest is the approval payload. ApproverName is optional; when set
// it must match the invoice's designated approver.
type approveRequest struct {
	ApproverName string `json:"approverName,omitempty"`
}

// approveInvoice runs the approval chain. The orchestrator never returns a
// raw error: every outcome is an ApprovalResult, and the HTTP status follows
// the result code so business rejections and infrastructure faults stay
// distinguishable.
func (h *Handler) approveInvoice(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	result := h.approvals.ApproveInvoice(r.Context(), r.PathValue("number"), req.ApproverName)

	status := http.StatusOK
	if !result.Success {
		status = statusForCode(result.Code)
	}
	h.respondJSON(w, status, result)
}

func (h *Handler) listApprovalHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.approvals.GetApprovalHistory(r.Context(), r.URL.Query().Get("invoiceNumber"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}
