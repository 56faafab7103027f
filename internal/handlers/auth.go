package handlers

import (
	"net/http"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/services"
)

type AuthHandler struct {
	accounts     *services.AccountService
	secureCookie bool
}

// NewAuthHandler builds the handler; secureCookie marks the session cookie
// Secure outside development.
func NewAuthHandler(accounts *services.AccountService, secureCookie bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, secureCookie: secureCookie}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.SetSession(w, sess.Token, sess.Claims.ExpiresAt.Time, h.secureCookie)
	httpx.JSON(w, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.SetSession(w, sess.Token, sess.Claims.ExpiresAt.Time, h.secureCookie)
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.accounts.Logout(r.Context(), claims); err != nil {
		writeError(w, r, err)
		return
	}
	auth.ClearSession(w)
	httpx.NoContent(w)
}
