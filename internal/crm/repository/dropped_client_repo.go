package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"gorm.io/gorm"
)

type DroppedClientRepository struct {
	db *gorm.DB
}

func NewDroppedClientRepository(db *gorm.DB) *DroppedClientRepository {
	return &DroppedClientRepository{db: db}
}

func (r *DroppedClientRepository) Create(ctx context.Context, dropped *entity.DroppedClient) error {
	return r.db.WithContext(ctx).Create(dropped).Error
}

func (r *DroppedClientRepository) FindByID(ctx context.Context, id string) (*entity.DroppedClient, error) {
	var dropped entity.DroppedClient
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&dropped).Error
	if err != nil {
		return nil, translate(err)
	}
	return &dropped, nil
}

// UpdateDetails rewrites reason and dropped_date. The snapshot is left as is.
func (r *DroppedClientRepository) UpdateDetails(ctx context.Context, dropped *entity.DroppedClient) error {
	result := r.db.WithContext(ctx).Model(&entity.DroppedClient{}).
		Where("id = ?", dropped.ID).
		Updates(map[string]interface{}{
			"reason":       dropped.Reason,
			"dropped_date": dropped.DroppedDate,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DroppedClientRepository) HardDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.DroppedClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the archive, most recently dropped first.
func (r *DroppedClientRepository) List(ctx context.Context, droppedType entity.DroppedType) ([]entity.DroppedClient, error) {
	query := r.db.WithContext(ctx).Model(&entity.DroppedClient{})
	if droppedType != "" {
		query = query.Where("type = ?", droppedType)
	}

	var items []entity.DroppedClient
	err := query.Order("dropped_date DESC, created_at DESC").Find(&items).Error
	return items, err
}
