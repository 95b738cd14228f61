package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.authenticate", err)
		return
	}

	result, err := h.services.AuthService.Authenticate(r.Context(), req.Identifier, req.Password)
	h.writeAuthResult(w, r, "*Handler.authenticate", result, err)
}

func (h *Handler) passwordLogin(w http.ResponseWriter, r *http.Request) {
	var req models.PhonePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.passwordLogin", err)
		return
	}

	result, err := h.services.AuthService.PasswordLogin(r.Context(), req.Phone, req.Password)
	h.writeAuthResult(w, r, "*Handler.passwordLogin", result, err)
}

func (h *Handler) smsLogin(w http.ResponseWriter, r *http.Request) {
	var req models.CodeLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.smsLogin", err)
		return
	}

	result, err := h.services.AuthService.SmsLogin(r.Context(), req.Phone, req.Code)
	h.writeAuthResult(w, r, "*Handler.smsLogin", result, err)
}

func (h *Handler) emailLogin(w http.ResponseWriter, r *http.Request) {
	var req models.CodeLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.emailLogin", err)
		return
	}

	result, err := h.services.AuthService.EmailLogin(r.Context(), req.Email, req.Code)
	h.writeAuthResult(w, r, "*Handler.emailLogin", result, err)
}

func (h *Handler) wechatLogin(w http.ResponseWriter, r *http.Request) {
	var req models.WechatLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.wechatLogin", err)
		return
	}

	result, err := h.services.AuthService.WechatLogin(r.Context(), req.Code)
	h.writeAuthResult(w, r, "*Handler.wechatLogin", result, err)
}

func (h *Handler) wechatMiniLogin(w http.ResponseWriter, r *http.Request) {
	var req models.WechatLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.wechatMiniLogin", err)
		return
	}

	result, err := h.services.AuthService.WechatMiniLogin(r.Context(), req.Code)
	h.writeAuthResult(w, r, "*Handler.wechatMiniLogin", result, err)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.refresh", err)
		return
	}

	result, err := h.services.AuthService.Refresh(r.Context(), req.RefreshToken, req.UserID)
	h.writeAuthResult(w, r, "*Handler.refresh", result, err)
}

// logout always answers 204 for unusable tokens; only a failure to revoke
// a live session is reported.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, err := getTokenFromAuthHeader(r.Header.Get("Authorization"))
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err = h.services.AuthService.Logout(r.Context(), token); err != nil {
		writeError(w, r, "*Handler.logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	token, err := getTokenFromAuthHeader(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, "*Handler.verify", invalidTokenError(err))
		return
	}

	status := h.services.AuthService.VerifyLogin(r.Context(), token)
	if !status.IsValid {
		log.Debug().Str("func", "*Handler.verify").Msg("token is not bound to a live session")
		utils.WriteJSON(w, status.Response(), http.StatusUnauthorized)
		return
	}

	utils.WriteJSON(w, status.Response(), http.StatusOK)
}

func (h *Handler) writeAuthResult(w http.ResponseWriter, r *http.Request, fn string, result models.AuthResult, err error) {
	if err != nil {
		writeError(w, r, fn, err)
		return
	}

	logger.FromRequest(r).Debug().Int64("user_id", result.User.ID).Str("session_id", result.SessionID).Msg("user logged in")
	utils.WriteJSON(w, result, http.StatusOK)
}
