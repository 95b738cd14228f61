package http

import (
	"net/http"

	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func (h *Handler) getDepartments(w http.ResponseWriter, r *http.Request) {
	token, _ := utils.GetTokenFromContext(r.Context())

	departments, err := h.services.AuthService.GetUserDepartments(r.Context(), token)
	if err != nil {
		writeError(w, r, "*Handler.getDepartments", err)
		return
	}
	if departments == nil {
		departments = []map[string]any{}
	}

	utils.WriteJSON(w, models.DepartmentsResponse{Departments: departments}, http.StatusOK)
}

func (h *Handler) setCurrentDepartment(w http.ResponseWriter, r *http.Request) {
	var req models.DepartmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.setCurrentDepartment", err)
		return
	}

	token, _ := utils.GetTokenFromContext(r.Context())

	user, err := h.services.AuthService.SetCurrentDepartment(r.Context(), req.DepartmentID, token)
	if err != nil {
		writeError(w, r, "*Handler.setCurrentDepartment", err)
		return
	}

	utils.WriteJSON(w, user, http.StatusOK)
}
