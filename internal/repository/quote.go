package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-crm/internal/models"
)

type QuoteFilter struct {
	Status   models.QuoteStatus
	ClientID uint
	Search   string
	Limit    int
	Offset   int
}

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// Create inserts the quote with its items.
func (r *QuoteRepository) Create(ctx context.Context, q *models.Quote) error {
	return translate("create quote", r.db.WithContext(ctx).Omit("Client").Create(q).Error)
}

func (r *QuoteRepository) FindByID(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Client").
		First(&q, id).Error
	if err != nil {
		return nil, translate("find quote", err)
	}
	return &q, nil
}

// Save updates the header and replaces the item list in one transaction.
func (r *QuoteRepository) Save(ctx context.Context, q *models.Quote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		if len(q.Items) == 0 {
			return nil
		}
		for i := range q.Items {
			q.Items[i].ID = 0
			q.Items[i].QuoteID = q.ID
		}
		return tx.Create(&q.Items).Error
	})
	return translate("save quote", err)
}

func (r *QuoteRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Quote{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("delete quote", err)
}

func (f QuoteFilter) scope(ownerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", ownerID)
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.ClientID != 0 {
			db = db.Where("client_id = ?", f.ClientID)
		}
		if f.Search != "" {
			like := likePattern(f.Search)
			db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(number) LIKE ? ESCAPE '\')`, like, like)
		}
		return db
	}
}

// List returns one page of the owner's quotes, newest first, and the total
// number of matches.
func (r *QuoteRepository) List(ctx context.Context, ownerID uint, f QuoteFilter) ([]models.Quote, int64, error) {
	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.Quote{}).Scopes(f.scope(ownerID)).Count(&total).Error; err != nil {
		return nil, 0, translate("count quotes", err)
	}
	var quotes []models.Quote
	err := db.Scopes(f.scope(ownerID)).
		Preload("Items", orderedItems).
		Preload("Client").
		Order("issue_date DESC, id DESC").
		Limit(pageLimit(f.Limit)).Offset(f.Offset).
		Find(&quotes).Error
	if err != nil {
		return nil, 0, translate("list quotes", err)
	}
	return quotes, total, nil
}

// NextNumber returns the next free number of the owner for year.
func (r *QuoteRepository) NextNumber(ctx context.Context, ownerID uint, year int) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("user_id = ? AND number LIKE ?", ownerID, models.QuoteNumberPattern(year)).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", translate("next quote number", err)
	}
	last := 0
	for _, n := range numbers {
		if seq, ok := models.QuoteSequence(n); ok && seq > last {
			last = seq
		}
	}
	return models.FormatQuoteNumber(year, last+1), nil
}

func (r *QuoteRepository) CountByClient(ctx context.Context, clientID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Quote{}).Where("client_id = ?", clientID).Count(&n).Error
	return n, translate("count quotes by client", err)
}

// CountByStatus returns the number of the owner's quotes per status.
func (r *QuoteRepository) CountByStatus(ctx context.Context, ownerID uint) (map[models.QuoteStatus]int64, error) {
	var rows []struct {
		Status models.QuoteStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count quotes by status", err)
	}
	out := make(map[models.QuoteStatus]int64, len(models.QuoteStatuses))
	for _, s := range models.QuoteStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// AcceptedRevenue sums totalInclTax over the owner's accepted quotes.
func (r *QuoteRepository) AcceptedRevenue(ctx context.Context, ownerID uint) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("user_id = ? AND status = ?", ownerID, models.QuoteStatusAccepted).
		Pluck("total_incl_tax", &totals).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("accepted revenue: %w", err)
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t)
	}
	return sum, nil
}
