package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
)

// Stats is the dashboard summary of one account.
type Stats struct {
	Quotes          map[models.QuoteStatus]int64  `json:"quotes"`
	AcceptedRevenue decimal.Decimal               `json:"acceptedRevenue"`
	Clients         map[models.ClientStatus]int64 `json:"clients"`
}

type StatsService struct {
	quotes  *repository.QuoteRepository
	clients *repository.ClientRepository
}

func NewStatsService(quotes *repository.QuoteRepository, clients *repository.ClientRepository) *StatsService {
	return &StatsService{quotes: quotes, clients: clients}
}

func (s *StatsService) Summary(ctx context.Context, ownerID uint) (*Stats, error) {
	byStatus, err := s.quotes.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.quotes.AcceptedRevenue(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	clients, err := s.clients.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &Stats{Quotes: byStatus, AcceptedRevenue: revenue, Clients: clients}, nil
}
