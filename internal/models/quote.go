package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/money"
	"github.com/diewo77/go-crm/validation"
)

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRefused  QuoteStatus = "refused"
)

// QuoteStatuses lists every known status in lifecycle order.
var QuoteStatuses = []QuoteStatus{QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRefused}

func (s QuoteStatus) Valid() bool {
	for _, known := range QuoteStatuses {
		if s == known {
			return true
		}
	}
	return false
}

const (
	DefaultCurrency      = "EUR"
	MaxDescriptionLength = 500
	quoteNumberPrefix    = "DEV"
)

var (
	DefaultQuantity = decimal.NewFromInt(1)
	DefaultVATRate  = decimal.NewFromInt(20)
	maxVATRate      = decimal.NewFromInt(100)
)

// Decimal places stored for line item numbers; they match the column types.
const (
	QuantityScale  = 3
	UnitPriceScale = 4
	VATRateScale   = 2
)

// Quote is a priced proposal sent to a client. Totals and ByRate are derived
// from Items and kept in sync by Recalculate.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID uint   `gorm:"not null;uniqueIndex:idx_quote_owner_number" json:"userId"`
	Number string `gorm:"size:20;not null;uniqueIndex:idx_quote_owner_number" json:"number"`

	ClientID uint    `gorm:"index;not null" json:"clientId"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Title      string `gorm:"size:255" json:"title"`
	Notes      string `gorm:"type:text" json:"notes"`
	Conditions string `gorm:"type:text" json:"conditions"`
	Currency   string `gorm:"size:3;not null;default:'EUR'" json:"currency"`

	IssueDate  time.Time  `gorm:"not null" json:"issueDate"`
	ValidUntil *time.Time `json:"validUntil"`

	Status     QuoteStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`
	SentAt     *time.Time  `json:"sentAt"`
	AcceptedAt *time.Time  `json:"acceptedAt"`
	RefusedAt  *time.Time  `json:"refusedAt"`

	TotalExclTax decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalExclTax"`
	TotalTax     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalTax"`
	TotalInclTax decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalInclTax"`

	Items  []LineItem                 `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items"`
	ByRate map[string]money.RateTotal `gorm:"-" json:"byRate"`
}

// LineItem is one priced row of a quote. LineTotal is derived.
type LineItem struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	QuoteID     uint            `gorm:"index;not null" json:"-"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"unitPrice"`
	VATRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vatRate"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"lineTotal"`
}

func (LineItem) TableName() string { return "quote_items" }

// LineItemInput carries the user-supplied part of a line item. Nil numbers
// take their defaults.
type LineItemInput struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	VATRate     *decimal.Decimal `json:"vatRate"`
}

// LineItem builds an item with defaults applied. LineTotal is left for
// Recalculate.
func (in LineItemInput) LineItem() LineItem {
	item := LineItem{
		Description: in.Description,
		Quantity:    DefaultQuantity,
		UnitPrice:   decimal.Zero,
		VATRate:     DefaultVATRate,
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.UnitPrice != nil {
		item.UnitPrice = *in.UnitPrice
	}
	if in.VATRate != nil {
		item.VATRate = *in.VATRate
	}
	return item
}

func (q *Quote) GetUserID() uint {
	return q.UserID
}

func (q *Quote) IsDraft() bool {
	return q.Status == QuoteStatusDraft
}

func (q *Quote) lines() []money.Line {
	lines := make([]money.Line, len(q.Items))
	for i, it := range q.Items {
		lines[i] = money.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice, VATRate: it.VATRate}
	}
	return lines
}

// Totals computes the totals from the current items without mutating q.
func (q *Quote) Totals() money.Totals {
	return money.ComputeQuoteTotals(q.lines())
}

// Recalculate refreshes positions, line totals, quote totals and ByRate.
func (q *Quote) Recalculate() {
	for i := range q.Items {
		q.Items[i].Position = i
		q.Items[i].LineTotal = money.LineTotal(q.Items[i].Quantity, q.Items[i].UnitPrice)
	}
	t := q.Totals()
	q.TotalExclTax = t.TotalExclTax
	q.TotalTax = t.TotalTax
	q.TotalInclTax = t.TotalInclTax
	q.ByRate = t.ByRate
}

// SetStatus moves the quote to status and stamps the matching timestamp with
// now. Stamping depends only on the target: entering a status again stamps
// it again, and draft stamps nothing. Timestamps are never cleared.
func (q *Quote) SetStatus(status QuoteStatus, now time.Time) error {
	if !status.Valid() {
		return validation.Single("status", "invalid_value")
	}
	at := now
	switch status {
	case QuoteStatusSent:
		q.SentAt = &at
	case QuoteStatusAccepted:
		q.AcceptedAt = &at
	case QuoteStatusRefused:
		q.RefusedAt = &at
	}
	q.Status = status
	return nil
}

// Validate checks the fields a quote cannot be stored without.
func (q *Quote) Validate() error {
	v := validation.Violations{}
	if q.ClientID == 0 {
		v["clientId"] = "required"
	}
	if q.Currency != "" && len(q.Currency) != 3 {
		v["currency"] = "invalid_value"
	}
	for i, it := range q.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.Required(prefix+"description", it.Description, v)
		validation.MaxLen(prefix+"description", it.Description, MaxDescriptionLength, v)
		validation.MaxScale(prefix+"quantity", it.Quantity, QuantityScale, v)
		validation.MaxScale(prefix+"unitPrice", it.UnitPrice, UnitPriceScale, v)
		validation.MaxScale(prefix+"vatRate", it.VATRate, VATRateScale, v)
		validation.RangeDecimal(prefix+"vatRate", it.VATRate, decimal.Zero, maxVATRate, v)
	}
	return v.Err()
}

// AddItem appends an item built from in and recalculates.
func (q *Quote) AddItem(in LineItemInput) {
	q.Items = append(q.Items, in.LineItem())
	q.Recalculate()
}

// RemoveItem drops the item at index and recalculates.
func (q *Quote) RemoveItem(index int) error {
	if index < 0 || index >= len(q.Items) {
		return validation.Single("index", "out_of_range")
	}
	items := make([]LineItem, 0, len(q.Items)-1)
	items = append(items, q.Items[:index]...)
	items = append(items, q.Items[index+1:]...)
	q.Items = items
	q.Recalculate()
	return nil
}

// Clone returns a copy that shares no slices, maps or pointers with q.
func (q Quote) Clone() Quote {
	out := q
	out.Items = make([]LineItem, len(q.Items))
	copy(out.Items, q.Items)
	out.ValidUntil = cloneTime(q.ValidUntil)
	out.SentAt = cloneTime(q.SentAt)
	out.AcceptedAt = cloneTime(q.AcceptedAt)
	out.RefusedAt = cloneTime(q.RefusedAt)
	if q.ByRate != nil {
		out.ByRate = make(map[string]money.RateTotal, len(q.ByRate))
		for k, v := range q.ByRate {
			out.ByRate[k] = v
		}
	}
	if q.Client != nil {
		c := *q.Client
		out.Client = &c
	}
	return out
}

// FormatQuoteNumber renders the human-readable number, e.g. DEV-2025-0001.
func FormatQuoteNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", quoteNumberPrefix, year, seq)
}

// QuoteNumberPattern is the LIKE pattern matching every number of year.
func QuoteNumberPattern(year int) string {
	return fmt.Sprintf("%s-%d-%%", quoteNumberPrefix, year)
}

// QuoteSequence extracts the trailing sequence of a quote number.
func QuoteSequence(number string) (int, bool) {
	i := strings.LastIndexByte(number, '-')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(number[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// BeforeSave keeps stored totals consistent with the items being written.
func (q *Quote) BeforeSave(_ *gorm.DB) error {
	if q.Currency == "" {
		q.Currency = DefaultCurrency
	}
	if q.Status == "" {
		q.Status = QuoteStatusDraft
	}
	q.Recalculate()
	return nil
}

// AfterFind rebuilds the per-rate breakdown, which is not persisted.
func (q *Quote) AfterFind(_ *gorm.DB) error {
	q.ByRate = q.Totals().ByRate
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
