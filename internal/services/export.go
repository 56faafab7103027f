package services

import (
	"context"

	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/export"
	"github.com/diewo77/go-crm/internal/repository"
)

// ExportService renders owned quotes as PDF documents.
type ExportService struct {
	quotes *QuoteService
	users  *repository.UserRepository
}

func NewExportService(quotes *QuoteService, users *repository.UserRepository) *ExportService {
	return &ExportService{quotes: quotes, users: users}
}

// QuotePDF returns the document and a download file name.
func (s *ExportService) QuotePDF(ctx context.Context, ownerID, id uint) ([]byte, string, error) {
	q, err := s.quotes.load(ctx, ownerID, id, gate.ActionExport)
	if err != nil {
		return nil, "", err
	}
	issuer, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := export.QuotePDF(export.NewQuoteDocument(q, issuer))
	if err != nil {
		return nil, "", err
	}
	return pdf, q.Number + ".pdf", nil
}
