package httpx

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/janhvii19/Inventory-Order-Management-System/internal/auth"
)

type AuthHandler struct {
	Repo   *auth.Repo
	Issuer auth.Issuer
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/token/refresh", h.refresh)
}

type registerReq struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeDetail(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeDetail(w, http.StatusBadRequest, "Password fields didn't match.")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Repo.Create(r.Context(), req.Name, req.Email, req.PhoneNumber, hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	pair, err := h.Issuer.Issue(u.ID)
	if err != nil {
		log.Printf("issue tokens: %v", err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    u,
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.Repo.ByEmail(r.Context(), req.Email)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := auth.VerifyPassword(u.PasswordHash, req.Password); err != nil {
		writeErr(w, err)
		return
	}
	pair, err := h.Issuer.Issue(u.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID, err := h.Issuer.VerifyRefresh(req.Refresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	pair, err := h.Issuer.Issue(userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
