package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
)

// ClientInput is the writable part of a client.
type ClientInput struct {
	Name       string              `json:"name" validate:"required,max=255"`
	Company    string              `json:"company" validate:"max=255"`
	Email      string              `json:"email" validate:"omitempty,email,max=255"`
	Phone      string              `json:"phone" validate:"max=50"`
	Address    string              `json:"address" validate:"max=500"`
	City       string              `json:"city" validate:"max=100"`
	PostalCode string              `json:"postalCode" validate:"max=20"`
	Country    string              `json:"country" validate:"max=100"`
	SIRET      string              `json:"siret" validate:"omitempty,numeric,len=14"`
	VATNumber  string              `json:"vatNumber" validate:"max=20"`
	Notes      string              `json:"notes"`
	Status     models.ClientStatus `json:"status" validate:"omitempty,oneof=prospect client"`
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = in.Name
	c.Company = in.Company
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.PostalCode = in.PostalCode
	c.Country = in.Country
	c.SIRET = in.SIRET
	c.VATNumber = in.VATNumber
	c.Notes = in.Notes
	if in.Status != "" {
		c.Status = in.Status
	}
}

type ClientService struct {
	clients *repository.ClientRepository
	quotes  *repository.QuoteRepository
	gate    *gate.Gate[uint]
}

func NewClientService(clients *repository.ClientRepository, quotes *repository.QuoteRepository, g *gate.Gate[uint]) *ClientService {
	return &ClientService{clients: clients, quotes: quotes, gate: g}
}

func (s *ClientService) Create(ctx context.Context, ownerID uint, in ClientInput) (*models.Client, error) {
	if err := authorize(ctx, s.gate, ownerID, gate.ActionCreate, gate.ResourceClient, nil); err != nil {
		return nil, err
	}
	c := &models.Client{UserID: ownerID, Status: models.ClientStatusProspect, Source: models.ClientSourceManual}
	in.apply(c)
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve returns the client when it exists and belongs to ownerID.
func (s *ClientService) Resolve(ctx context.Context, ownerID, clientID uint) (*models.Client, error) {
	return s.load(ctx, ownerID, clientID, gate.ActionView)
}

func (s *ClientService) Get(ctx context.Context, ownerID, id uint) (*models.Client, error) {
	return s.Resolve(ctx, ownerID, id)
}

func (s *ClientService) List(ctx context.Context, ownerID uint, f repository.ClientFilter) ([]models.Client, int64, error) {
	if err := authorize(ctx, s.gate, ownerID, gate.ActionList, gate.ResourceClient, nil); err != nil {
		return nil, 0, err
	}
	return s.clients.List(ctx, ownerID, f)
}

// Update replaces the writable fields of the client.
func (s *ClientService) Update(ctx context.Context, ownerID, id uint, in ClientInput) (*models.Client, error) {
	c, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.clients.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete refuses to remove a client that quotes still refer to.
func (s *ClientService) Delete(ctx context.Context, ownerID, id uint) error {
	c, err := s.load(ctx, ownerID, id, gate.ActionDelete)
	if err != nil {
		return err
	}
	n, err := s.quotes.CountByClient(ctx, c.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: client has %d quotes", ErrConflict, n)
	}
	return s.clients.Delete(ctx, c.ID)
}

// Convert turns a prospect into a client.
func (s *ClientService) Convert(ctx context.Context, ownerID, id uint) (*models.Client, error) {
	c, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.promote(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClientService) promote(ctx context.Context, c *models.Client) error {
	if !c.IsProspect() {
		return nil
	}
	c.Status = models.ClientStatusClient
	if err := s.clients.Save(ctx, c); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"client_id": c.ID, "user_id": c.UserID}).Info("prospect converted to client")
	return nil
}

func (s *ClientService) load(ctx context.Context, ownerID, id uint, action gate.Action) (*models.Client, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, ownerID, action, gate.ResourceClient, c); err != nil {
		return nil, err
	}
	return c, nil
}
