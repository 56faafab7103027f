package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/logging"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
)

// numberAttempts bounds retries when two creations race for one number.
const numberAttempts = 3

// QuoteInput is the body of a quote creation.
type QuoteInput struct {
	ClientID   uint                   `json:"clientId" validate:"required"`
	Title      string                 `json:"title" validate:"max=255"`
	Notes      string                 `json:"notes"`
	Conditions string                 `json:"conditions"`
	Currency   string                 `json:"currency" validate:"omitempty,len=3,alpha"`
	IssueDate  *models.Date           `json:"issueDate"`
	ValidUntil *models.Date           `json:"validUntil"`
	Items      []models.LineItemInput `json:"items"`
}

type QuoteService struct {
	quotes  *repository.QuoteRepository
	clients *ClientService
	gate    *gate.Gate[uint]
	now     Clock
}

func NewQuoteService(quotes *repository.QuoteRepository, clients *ClientService, g *gate.Gate[uint], now Clock) *QuoteService {
	if now == nil {
		now = time.Now
	}
	return &QuoteService{quotes: quotes, clients: clients, gate: g, now: now}
}

// Create builds a draft for ownerID and assigns the next number of its
// issue year.
func (s *QuoteService) Create(ctx context.Context, ownerID uint, in QuoteInput) (*models.Quote, error) {
	if err := authorize(ctx, s.gate, ownerID, gate.ActionCreate, gate.ResourceQuote, nil); err != nil {
		return nil, err
	}
	client, err := s.clients.Resolve(ctx, ownerID, in.ClientID)
	if err != nil {
		return nil, err
	}
	q := &models.Quote{
		UserID:     ownerID,
		ClientID:   client.ID,
		Title:      in.Title,
		Notes:      in.Notes,
		Conditions: in.Conditions,
		Currency:   in.Currency,
		IssueDate:  today(s.now()),
		ValidUntil: in.ValidUntil.TimePtr(),
		Status:     models.QuoteStatusDraft,
	}
	if q.Currency == "" {
		q.Currency = models.DefaultCurrency
	}
	if in.IssueDate != nil {
		q.IssueDate = in.IssueDate.Time
	}
	for _, it := range in.Items {
		q.Items = append(q.Items, it.LineItem())
	}
	q.Recalculate()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.insert(ctx, q); err != nil {
		return nil, err
	}
	q.Client = client
	logging.FromContext(ctx).WithFields(logrus.Fields{"quote_id": q.ID, "number": q.Number}).Info("quote created")
	return q, nil
}

func (s *QuoteService) insert(ctx context.Context, q *models.Quote) error {
	var err error
	for i := 0; i < numberAttempts; i++ {
		q.Number, err = s.quotes.NextNumber(ctx, q.UserID, q.IssueDate.Year())
		if err != nil {
			return err
		}
		err = s.quotes.Create(ctx, q)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		q.ID = 0
		for j := range q.Items {
			q.Items[j].ID = 0
		}
	}
	return err
}

func (s *QuoteService) Get(ctx context.Context, ownerID, id uint) (*models.Quote, error) {
	return s.load(ctx, ownerID, id, gate.ActionView)
}

func (s *QuoteService) List(ctx context.Context, ownerID uint, f repository.QuoteFilter) ([]models.Quote, int64, error) {
	if err := authorize(ctx, s.gate, ownerID, gate.ActionList, gate.ResourceQuote, nil); err != nil {
		return nil, 0, err
	}
	return s.quotes.List(ctx, ownerID, f)
}

// Update applies p and persists the result. The stored quote is untouched
// when the patched one does not validate.
func (s *QuoteService) Update(ctx context.Context, ownerID, id uint, p models.QuotePatch) (*models.Quote, error) {
	q, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	var client *models.Client
	if p.ClientID != nil {
		if client, err = s.clients.Resolve(ctx, ownerID, *p.ClientID); err != nil {
			return nil, err
		}
	}
	updated, err := models.ApplyPatch(*q, p)
	if err != nil {
		return nil, err
	}
	if client != nil {
		updated.Client = client
	}
	if err := s.quotes.Save(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *QuoteService) Delete(ctx context.Context, ownerID, id uint) error {
	q, err := s.load(ctx, ownerID, id, gate.ActionDelete)
	if err != nil {
		return err
	}
	return s.quotes.Delete(ctx, q.ID)
}

func (s *QuoteService) AddItem(ctx context.Context, ownerID, id uint, in models.LineItemInput) (*models.Quote, error) {
	q, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	q.AddItem(in)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuoteService) RemoveItem(ctx context.Context, ownerID, id uint, index int) (*models.Quote, error) {
	q, err := s.load(ctx, ownerID, id, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := q.RemoveItem(index); err != nil {
		return nil, err
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// SetStatus moves the quote to status. Accepting a quote promotes its
// prospect to client.
func (s *QuoteService) SetStatus(ctx context.Context, ownerID, id uint, status models.QuoteStatus) (*models.Quote, error) {
	q, err := s.load(ctx, ownerID, id, gate.ActionChangeStatus)
	if err != nil {
		return nil, err
	}
	from := q.Status
	if err := q.SetStatus(status, s.now()); err != nil {
		return nil, err
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	if status == models.QuoteStatusAccepted && q.Client != nil {
		if err := s.clients.promote(ctx, q.Client); err != nil {
			return nil, err
		}
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"quote_id": q.ID,
		"from":     from,
		"to":       status,
	}).Info("quote status changed")
	return q, nil
}

// Duplicate copies the quote into a new draft dated today.
func (s *QuoteService) Duplicate(ctx context.Context, ownerID, id uint) (*models.Quote, error) {
	src, err := s.load(ctx, ownerID, id, gate.ActionView)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, ownerID, gate.ActionCreate, gate.ResourceQuote, nil); err != nil {
		return nil, err
	}
	cp := src.Clone()
	cp.ID = 0
	cp.CreatedAt, cp.UpdatedAt = time.Time{}, time.Time{}
	cp.Status = models.QuoteStatusDraft
	cp.SentAt, cp.AcceptedAt, cp.RefusedAt = nil, nil, nil
	cp.IssueDate = today(s.now())
	cp.ValidUntil = nil
	client := cp.Client
	cp.Client = nil
	for i := range cp.Items {
		cp.Items[i].ID = 0
		cp.Items[i].QuoteID = 0
	}
	cp.Recalculate()
	if err := s.insert(ctx, &cp); err != nil {
		return nil, err
	}
	cp.Client = client
	return &cp, nil
}

func (s *QuoteService) load(ctx context.Context, ownerID, id uint, action gate.Action) (*models.Quote, error) {
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.gate, ownerID, action, gate.ResourceQuote, q); err != nil {
		return nil, err
	}
	return q, nil
}
