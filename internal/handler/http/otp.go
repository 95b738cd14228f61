package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func (h *Handler) checkOtp(w http.ResponseWriter, r *http.Request) {
	var req models.OtpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.checkOtp", err)
		return
	}

	check, err := h.services.AuthService.CanSendOtp(r.Context(), req.Identifier, req.Purpose)
	if err != nil {
		writeError(w, r, "*Handler.checkOtp", err)
		return
	}

	utils.WriteJSON(w, check, http.StatusOK)
}

// requestOtp generates and delivers a code by SMS. The code itself never
// leaves the server through this endpoint.
func (h *Handler) requestOtp(w http.ResponseWriter, r *http.Request) {
	var req models.OtpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.requestOtp", err)
		return
	}
	if strings.Contains(req.Identifier, "@") {
		writeError(w, r, "*Handler.requestOtp", fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, ErrSmsOnly))
		return
	}

	check, _, err := h.services.AuthService.RequestOtp(r.Context(), req.Identifier, req.Purpose)
	if err != nil {
		writeError(w, r, "*Handler.requestOtp", err)
		return
	}
	if !check.Allowed {
		utils.WriteJSON(w, check, http.StatusTooManyRequests)
		return
	}

	utils.WriteJSON(w, check, http.StatusAccepted)
}

func (h *Handler) blacklistOtpTarget(w http.ResponseWriter, r *http.Request) {
	var req models.OtpBlacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.blacklistOtpTarget", err)
		return
	}

	err := h.services.AuthService.BlacklistOtpTarget(r.Context(), req.Identifier, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeError(w, r, "*Handler.blacklistOtpTarget", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
