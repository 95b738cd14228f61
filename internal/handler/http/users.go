package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var input models.UserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, "*Handler.createUser", err)
		return
	}

	user, err := h.services.AuthService.CreateUser(r.Context(), input)
	if err != nil {
		writeError(w, r, "*Handler.createUser", err)
		return
	}

	utils.WriteJSON(w, user, http.StatusCreated)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.services.AuthService.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, "*Handler.listUsers", err)
		return
	}

	utils.WriteJSON(w, models.UsersResponse{
		Users:  users,
		Length: len(users),
	}, http.StatusOK)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		writeError(w, r, "*Handler.updateUser", err)
		return
	}

	var patch models.UserPatch
	if err = decodeJSON(r, &patch); err != nil {
		writeError(w, r, "*Handler.updateUser", err)
		return
	}

	user, err := h.services.AuthService.UpdateUser(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, "*Handler.updateUser", err)
		return
	}

	utils.WriteJSON(w, user, http.StatusOK)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		writeError(w, r, "*Handler.deleteUser", err)
		return
	}

	if err = h.services.AuthService.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, "*Handler.deleteUser", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getUserSessions(w http.ResponseWriter, r *http.Request) {
	id, err := userIDFromPath(r)
	if err != nil {
		writeError(w, r, "*Handler.getUserSessions", err)
		return
	}

	sessionIDs, err := h.services.AuthService.GetUserSessions(r.Context(), strconv.FormatInt(id, 10))
	if err != nil {
		writeError(w, r, "*Handler.getUserSessions", err)
		return
	}
	if sessionIDs == nil {
		sessionIDs = []string{}
	}

	utils.WriteJSON(w, models.SessionsResponse{SessionIDs: sessionIDs}, http.StatusOK)
}

func (h *Handler) validateUsername(w http.ResponseWriter, r *http.Request) {
	var req models.UsernameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.validateUsername", err)
		return
	}

	if err := h.services.AuthService.ValidateUsername(r.Context(), req.Username); err != nil {
		writeError(w, r, "*Handler.validateUsername", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func userIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %w", service.ErrInvalidDataProvided, ErrInvalidUserID)
	}
	return id, nil
}
