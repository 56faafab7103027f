package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/diewo77/go-crm/internal/models"
)

type ClientFilter struct {
	Status models.ClientStatus
	Search string
	Limit  int
	Offset int
}

func (f ClientFilter) scope(ownerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", ownerID)
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Search != "" {
			like := likePattern(f.Search)
			db = db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, like, like, like)
		}
		return db
	}
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	return translate("create client", r.db.WithContext(ctx).Create(c).Error)
}

func (r *ClientRepository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate("find client", err)
	}
	return &c, nil
}

func (r *ClientRepository) Save(ctx context.Context, c *models.Client) error {
	return translate("save client", r.db.WithContext(ctx).Save(c).Error)
}

// Delete soft-deletes the client.
func (r *ClientRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Client{}, id)
	if res.Error != nil {
		return translate("delete client", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ClientRepository) List(ctx context.Context, ownerID uint, f ClientFilter) ([]models.Client, int64, error) {
	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.Client{}).Scopes(f.scope(ownerID)).Count(&total).Error; err != nil {
		return nil, 0, translate("count clients", err)
	}
	var clients []models.Client
	err := db.Scopes(f.scope(ownerID)).
		Order("name ASC, id ASC").
		Limit(pageLimit(f.Limit)).Offset(f.Offset).
		Find(&clients).Error
	if err != nil {
		return nil, 0, translate("list clients", err)
	}
	return clients, total, nil
}

// CountByStatus returns the number of the owner's clients per status.
func (r *ClientRepository) CountByStatus(ctx context.Context, ownerID uint) (map[models.ClientStatus]int64, error) {
	var rows []struct {
		Status models.ClientStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Client{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count clients by status", err)
	}
	out := map[models.ClientStatus]int64{models.ClientStatusProspect: 0, models.ClientStatusClient: 0}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
