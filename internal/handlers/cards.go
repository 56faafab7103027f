package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/export"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/validation"
)

// cardResponse adds the public link to the owner's view of a card.
type cardResponse struct {
	*models.BusinessCard
	PublicURL string `json:"publicUrl"`
}

type CardHandler struct {
	cards *services.CardService
}

func NewCardHandler(cards *services.CardService) *CardHandler {
	return &CardHandler{cards: cards}
}

func (h *CardHandler) respond(c *models.BusinessCard) cardResponse {
	return cardResponse{BusinessCard: c, PublicURL: h.cards.PublicLink(c)}
}

func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for i := range cards {
		out = append(out, h.respond(&cards[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CardInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.cards.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.respond(c))
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.cards.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.respond(c))
}

func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.CardInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.cards.Update(r.Context(), ownerID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.respond(c))
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.cards.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *CardHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.cards.SetPhoto(r.Context(), ownerID(r), id, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.respond(c))
}

// QRCode renders the card's public link; ?size= is clamped to the
// supported range.
func (h *CardHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	size := export.DefaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, validation.Single("size", "invalid_number"))
			return
		}
		size = n
	}
	png, err := h.cards.QRCode(r.Context(), ownerID(r), id, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.Blob(w, http.StatusOK, "image/png", png)
}

// PublicCardHandler serves the unauthenticated card pages.
type PublicCardHandler struct {
	cards *services.CardService
}

func NewPublicCardHandler(cards *services.CardService) *PublicCardHandler {
	return &PublicCardHandler{cards: cards}
}

func (h *PublicCardHandler) View(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.View(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, card)
}

func (h *PublicCardHandler) Photo(w http.ResponseWriter, r *http.Request) {
	obj, err := h.cards.Photo(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeObject(w, obj)
}

// CaptureLead answers with the minimum a visitor needs; the prospect stays
// private to the card owner.
func (h *PublicCardHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var in services.LeadInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.cards.CaptureLead(r.Context(), r.PathValue("slug"), in); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "received"})
}
