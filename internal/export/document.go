// Package export renders quotes as PDF documents and card links as QR codes.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/money"
)

// Party is the issuer or recipient block of a document.
type Party struct {
	Name      string
	Address   string
	Email     string
	Phone     string
	SIRET     string
	VATNumber string
}

type DocumentLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	LineTotal   decimal.Decimal
}

// QuoteDocument is everything printed on an exported quote.
type QuoteDocument struct {
	Issuer     Party
	Client     Party
	Number     string
	Title      string
	Status     string
	Currency   string
	IssueDate  time.Time
	ValidUntil *time.Time
	Lines      []DocumentLine
	Rates      []money.RateTotal
	Totals     money.Totals
	Notes      string
	Conditions string
}

// NewQuoteDocument builds the printable view of q. Totals are recomputed from
// the items so the document never disagrees with its own lines.
func NewQuoteDocument(q *models.Quote, issuer *models.User) QuoteDocument {
	totals := q.Totals()
	doc := QuoteDocument{
		Issuer: Party{
			Name:      issuer.IssuerName(),
			Address:   issuer.FullAddress(),
			Email:     issuer.Email,
			Phone:     issuer.Phone,
			SIRET:     issuer.SIRET,
			VATNumber: issuer.VATNumber,
		},
		Number:     q.Number,
		Title:      q.Title,
		Status:     string(q.Status),
		Currency:   q.Currency,
		IssueDate:  q.IssueDate,
		ValidUntil: q.ValidUntil,
		Rates:      totals.Rates(),
		Totals:     totals,
		Notes:      q.Notes,
		Conditions: q.Conditions,
	}
	if q.Client != nil {
		doc.Client = Party{
			Name:      q.Client.DisplayName(),
			Address:   q.Client.FullAddress(),
			Email:     q.Client.Email,
			Phone:     q.Client.Phone,
			SIRET:     q.Client.SIRET,
			VATNumber: q.Client.VATNumber,
		}
	}
	for _, it := range q.Items {
		doc.Lines = append(doc.Lines, DocumentLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			VATRate:     it.VATRate,
			LineTotal:   money.LineTotal(it.Quantity, it.UnitPrice),
		})
	}
	return doc
}
