package httpapi

import (
	"net/http"

	"caseflow.org/internal/auth"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

func (a *API) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}
	u, err := a.gate.CreateUser(r.Context(), auth.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     role,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.gate.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.gate.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	upd := auth.UserUpdate{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unknown role")
			return
		}
		upd.Role = &role
	}
	u, err := a.gate.UpdateUser(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.gate.SetPassword(r.Context(), r.PathValue("id"), req.Password); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.gate.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
