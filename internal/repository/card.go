package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/models"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, c *models.BusinessCard) error {
	return translate("create card", r.db.WithContext(ctx).Create(c).Error)
}

func (r *CardRepository) FindByID(ctx context.Context, id uint) (*models.BusinessCard, error) {
	var c models.BusinessCard
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate("find card", err)
	}
	return &c, nil
}

func (r *CardRepository) FindBySlug(ctx context.Context, slug string) (*models.BusinessCard, error) {
	var c models.BusinessCard
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate("find card by slug", err)
	}
	return &c, nil
}

func (r *CardRepository) Save(ctx context.Context, c *models.BusinessCard) error {
	return translate("save card", r.db.WithContext(ctx).Save(c).Error)
}

func (r *CardRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.BusinessCard{}, id)
	if res.Error != nil {
		return translate("delete card", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CardRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.BusinessCard, error) {
	var cards []models.BusinessCard
	err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id ASC").Find(&cards).Error
	return cards, translate("list cards", err)
}

// IncrementViews adds one to the view counter in a single UPDATE.
func (r *CardRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.increment(ctx, id, "view_count")
}

// CaptureLead stores the prospect and bumps the card's lead counter in one
// transaction. A missing card leaves no prospect behind.
func (r *CardRepository) CaptureLead(ctx context.Context, cardID uint, prospect *models.Client) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prospect).Error; err != nil {
			return err
		}
		return increment(tx, cardID, "lead_count")
	})
	return translate("capture lead", err)
}

func (r *CardRepository) increment(ctx context.Context, id uint, column string) error {
	return translate("increment "+column, increment(r.db.WithContext(ctx), id, column))
}

func increment(db *gorm.DB, id uint, column string) error {
	res := db.Model(&models.BusinessCard{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
