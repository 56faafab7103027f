package handlers

import (
	"net/http"

	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/services"
)

// AccountHandler serves the authenticated user's own profile.
type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Me(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.accounts.UpdateProfile(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *AccountHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.accounts.SetLogo(r.Context(), ownerID(r), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *AccountHandler) Logo(w http.ResponseWriter, r *http.Request) {
	obj, err := h.accounts.Logo(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeObject(w, obj)
}
