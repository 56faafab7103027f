package handlers

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/validation"
)

// optionalDate tells an absent field apart from an explicit null.
type optionalDate struct {
	Set   bool
	Value *models.Date
}

func (o *optionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var d models.Date
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// quotePatchRequest is the body of PATCH /api/quotes/{id}. validUntil: null
// clears the validity date.
type quotePatchRequest struct {
	ClientID   *uint                   `json:"clientId"`
	Title      *string                 `json:"title" validate:"omitempty,max=255"`
	Notes      *string                 `json:"notes"`
	Conditions *string                 `json:"conditions"`
	Currency   *string                 `json:"currency" validate:"omitempty,len=3,alpha"`
	IssueDate  *models.Date            `json:"issueDate"`
	ValidUntil optionalDate            `json:"validUntil"`
	Items      *[]models.LineItemInput `json:"items"`
}

func (p quotePatchRequest) patch() models.QuotePatch {
	out := models.QuotePatch{
		ClientID:   p.ClientID,
		Title:      p.Title,
		Notes:      p.Notes,
		Conditions: p.Conditions,
		Currency:   p.Currency,
		IssueDate:  p.IssueDate.TimePtr(),
		Items:      p.Items,
	}
	if p.ValidUntil.Set {
		out.ValidUntil = p.ValidUntil.Value.TimePtr()
		out.ClearValidUntil = p.ValidUntil.Value == nil
	}
	return out
}

type statusRequest struct {
	Status models.QuoteStatus `json:"status" validate:"required"`
}

type QuoteHandler struct {
	quotes  *services.QuoteService
	exports *services.ExportService
}

func NewQuoteHandler(quotes *services.QuoteService, exports *services.ExportService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, exports: exports}
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r)
	clientID, err := httpx.QueryUint(r, "clientId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := repository.QuoteFilter{
		Status:   models.QuoteStatus(r.URL.Query().Get("status")),
		ClientID: clientID,
		Search:   strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:    limit,
		Offset:   offset,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, r, validation.Single("status", "invalid_value"))
		return
	}
	items, total, err := h.quotes.List(r.Context(), ownerID(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Page[models.Quote]{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.QuoteInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req quotePatchRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.Update(r.Context(), ownerID(r), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.quotes.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *QuoteHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.LineItemInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.AddItem(r.Context(), ownerID(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := httpx.PathIndex(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.RemoveItem(r.Context(), ownerID(r), id, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.SetStatus(r.Context(), ownerID(r), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.quotes.Duplicate(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pdf, name, err := h.exports.QuotePDF(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	httpx.Blob(w, http.StatusOK, "application/pdf", pdf)
}
