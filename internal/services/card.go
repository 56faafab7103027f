package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/export"
	"github.com/diewo77/go-crm/internal/logging"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
	"github.com/diewo77/go-crm/internal/storage"
)

type CardInput struct {
	DisplayName string `json:"displayName" validate:"required,max=255"`
	JobTitle    string `json:"jobTitle" validate:"max=255"`
	Company     string `json:"company" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Phone       string `json:"phone" validate:"max=50"`
	Website     string `json:"website" validate:"omitempty,url,max=255"`
	Bio         string `json:"bio" validate:"max=2000"`
	Active      *bool  `json:"active"`
}

func (in CardInput) apply(c *models.BusinessCard) {
	c.DisplayName = in.DisplayName
	c.JobTitle = in.JobTitle
	c.Company = in.Company
	c.Email = in.Email
	c.Phone = in.Phone
	c.Website = in.Website
	c.Bio = in.Bio
	if in.Active != nil {
		c.Active = *in.Active
	}
}

// LeadInput is what a visitor leaves on a public card.
type LeadInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=50"`
	Company string `json:"company" validate:"max=255"`
	Message string `json:"message" validate:"max=2000"`
}

type CardService struct {
	cards     *repository.CardRepository
	store     storage.ObjectStore
	gate      *gate.Gate[uint]
	publicURL string
}

func NewCardService(cards *repository.CardRepository, store storage.ObjectStore, g *gate.Gate[uint], publicURL string) *CardService {
	return &CardService{cards: cards, store: store, gate: g, publicURL: publicURL}
}

func (s *CardService) Create(ctx context.Context, ownerID uint, in CardInput) (*models.BusinessCard, error) {
	if err := authorize(ctx, s.gate, ownerID, gate.ActionCreate, gate.ResourceCard, nil); err != nil {
		return nil, err
	}
	c := &models.BusinessCard{UserID: ownerID, Slug: uuid.NewString(), Active: true}
	in.apply(c)
	if err := s.cards.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CardService) Get(ctx context.Context, ownerID, id uint) (*models.BusinessCard, error) {
	return s.load(ctx, ownerID, id, gate.ActionView)
}

func (s *CardService) List(ctx context.Context, ownerID uint) ([]models.BusinessCard, error) {
	if err := authorize(ctx, s.gate, ownerID, gate.ActionList, gate.ResourceCard, nil); err != nil {
		return nil, err
	}
	return s.cards.ListByOwner(ctx, ownerID)
}

func (s *CardService) Update(ctx context.Context, ownerID, id uint, in CardInput) (*models.BusinessCard, error) {
	c, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.cards.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CardService) Delete(ctx context.Context, ownerID, id uint) error {
	c, err := s.load(ctx, ownerID, id, gate.ActionDelete)
	if err != nil {
		return err
	}
	return s.cards.Delete(ctx, c.ID)
}

func (s *CardService) SetPhoto(ctx context.Context, ownerID, id uint, data []byte) (*models.BusinessCard, error) {
	c, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	key, err := putImage(ctx, s.store, "cards", data)
	if err != nil {
		return nil, err
	}
	old := c.PhotoKey
	c.PhotoKey = key
	if err := s.cards.Save(ctx, c); err != nil {
		return nil, err
	}
	dropObject(ctx, s.store, old)
	return c, nil
}

// PublicLink is the URL encoded in the card's QR code.
func (s *CardService) PublicLink(c *models.BusinessCard) string {
	return s.publicURL + "/c/" + c.Slug
}

func (s *CardService) QRCode(ctx context.Context, ownerID, id uint, size int) ([]byte, error) {
	c, err := s.load(ctx, ownerID, id, gate.ActionExport)
	if err != nil {
		return nil, err
	}
	return export.QRCodePNG(s.PublicLink(c), size)
}

// View returns the public card and counts the visit. Inactive cards are not
// found.
func (s *CardService) View(ctx context.Context, slug string) (*models.PublicCard, error) {
	c, err := s.active(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.cards.IncrementViews(ctx, c.ID); err != nil {
		return nil, err
	}
	pub := c.Public()
	return &pub, nil
}

func (s *CardService) Photo(ctx context.Context, slug string) (*storage.Object, error) {
	c, err := s.active(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.PhotoKey == "" {
		return nil, ErrNotFound
	}
	return getObject(ctx, s.store, c.PhotoKey)
}

// CaptureLead registers the visitor as a prospect of the card owner.
func (s *CardService) CaptureLead(ctx context.Context, slug string, in LeadInput) (*models.Client, error) {
	c, err := s.active(ctx, slug)
	if err != nil {
		return nil, err
	}
	prospect := &models.Client{
		UserID:  c.UserID,
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Company: in.Company,
		Notes:   in.Message,
		Status:  models.ClientStatusProspect,
		Source:  models.ClientSourceCard,
		CardID:  &c.ID,
	}
	if err := s.cards.CaptureLead(ctx, c.ID, prospect); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"card_id":   c.ID,
		"client_id": prospect.ID,
	}).Info("lead captured")
	return prospect, nil
}

func (s *CardService) active(ctx context.Context, slug string) (*models.BusinessCard, error) {
	c, err := s.cards.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *CardService) load(ctx context.Context, ownerID, id uint, action gate.Action) (*models.BusinessCard, error) {
	c, err := s.cards.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, ownerID, action, gate.ResourceCard, c); err != nil {
		return nil, err
	}
	return c, nil
}
