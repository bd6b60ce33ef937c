package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pitchpanel/voice-panel/pkg/logging"
)

// callOriginator places an outbound call and returns the gateway call ID.
type callOriginator interface {
	Originate(ctx context.Context, toNumber string) (string, error)
}

// OutboundCallHandler triggers interview calls to founders on request.
type OutboundCallHandler struct {
	caller callOriginator
	logger *logging.Logger
}

// NewOutboundCallHandler creates the outbound call handler.
func NewOutboundCallHandler(caller callOriginator, logger *logging.Logger) *OutboundCallHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &OutboundCallHandler{caller: caller, logger: logger}
}

type outboundCallRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type outboundCallResponse struct {
	Message string `json:"message"`
	CallSID string `json:"call_sid"`
}

// InitiateCall handles POST /calls.
func (h *OutboundCallHandler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	var req outboundCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		writeJSONError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	sid, err := h.caller.Originate(r.Context(), req.PhoneNumber)
	if err != nil {
		h.logger.Error("failed to initiate outbound call",
			"to", req.PhoneNumber, "error", err)
		writeJSONError(w, http.StatusBadGateway, "Failed to initiate call")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(outboundCallResponse{
		Message: "Call initiated successfully",
		CallSID: sid,
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
