package api

import (
	"encoding/json"
	"net/http"

	"github.com/taskvault/taskvault/internal/apperr"
	"github.com/taskvault/taskvault/internal/service"
)

type UserController struct {
	users *service.UserService
}

func NewUserController(users *service.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(r.Context(), w, apperr.Validation("Json Decode failed"))
		return
	}

	token, user, aerr := uc.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusCreated, "User registered successfully.", map[string]any{
		"token": token,
		"user":  user,
	})
}

func (uc *UserController) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(r.Context(), w, apperr.Validation("Json Decode failed"))
		return
	}

	token, user, aerr := uc.users.Login(r.Context(), req.Email, req.Password)
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Login successful.", map[string]any{
		"token": token,
		"user":  user,
	})
}

func (uc *UserController) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	profile, aerr := uc.users.CurrentUser(r.Context(), identity.ID)
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Current user fetched successfully.", map[string]any{
		"user": profile,
	})
}

func (uc *UserController) updateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(r.Context(), w, apperr.Validation("Json Decode failed"))
		return
	}

	profile, aerr := uc.users.UpdateProfile(r.Context(), identity.ID, req.Name, req.Email)
	if aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Profile updated successfully.", map[string]any{
		"user": profile,
	})
}

func (uc *UserController) updatePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(r.Context(), w, apperr.Validation("Json Decode failed"))
		return
	}

	if aerr := uc.users.UpdatePassword(r.Context(), identity.ID, req.CurrentPassword, req.NewPassword); aerr != nil {
		writeErr(r.Context(), w, aerr)
		return
	}
	writeOK(w, http.StatusOK, "Password updated successfully.", nil)
}
