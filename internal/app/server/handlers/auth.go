package handlers

import (
	"encoding/json"
	"net/http"

	"edulive/internal/core/services"
)

// AuthHandler issues hub tokens. Real user authentication lives in the main
// platform backend; this endpoint exists for service-to-service calls and
// local development.
type AuthHandler struct {
	tokenSvc *services.TokenService
}

func NewAuthHandler(t *services.TokenService) *AuthHandler {
	return &AuthHandler{tokenSvc: t}
}

func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	log := reqLogger(r)
	var req struct {
		UserID int `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		log.ErrorContext(r.Context(), "auth handler - issue token - bad request")
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	token, err := h.tokenSvc.GenerateToken(req.UserID)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - generate token failed", "user_id", req.UserID)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"user_id": req.UserID,
	})
	log.InfoContext(r.Context(), "auth handler - token issued", "user_id", req.UserID)
}
