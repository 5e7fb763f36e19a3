package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"gorm.io/gorm"
)

type ActiveClientRepository struct {
	db *gorm.DB
}

func NewActiveClientRepository(db *gorm.DB) *ActiveClientRepository {
	return &ActiveClientRepository{db: db}
}

// Create inserts the client row only. The backing lead is written by the caller.
func (r *ActiveClientRepository) Create(ctx context.Context, client *entity.ActiveClient) error {
	return r.db.WithContext(ctx).Omit("Lead").Create(client).Error
}

func (r *ActiveClientRepository) FindByID(ctx context.Context, id string) (*entity.ActiveClient, error) {
	var client entity.ActiveClient
	err := r.db.WithContext(ctx).Preload("Lead").
		Where("id = ? AND is_deleted = ?", id, false).
		First(&client).Error
	if err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (r *ActiveClientRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ActiveClient{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CountByLead counts client rows, deleted or not, backed by leadID.
func (r *ActiveClientRepository) CountByLead(ctx context.Context, leadID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ActiveClient{}).Where("lead_id = ?", leadID).Count(&count).Error
	return count, err
}

func (r *ActiveClientRepository) Update(ctx context.Context, client *entity.ActiveClient) error {
	return r.db.WithContext(ctx).Omit("Lead").Save(client).Error
}

func (r *ActiveClientRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entity.ActiveClient{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ActiveClientRepository) HardDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.ActiveClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type ActiveClientListParams struct {
	EstadoServicio entity.ServiceStage
}

// List returns non-deleted clients with their lead in insertion order. A missing
// lead leaves Lead nil.
func (r *ActiveClientRepository) List(ctx context.Context, params ActiveClientListParams) ([]entity.ActiveClient, error) {
	query := r.db.WithContext(ctx).Model(&entity.ActiveClient{}).Where("is_deleted = ?", false)
	if params.EstadoServicio != "" {
		query = query.Where("estado_servicio = ?", params.EstadoServicio)
	}

	var clients []entity.ActiveClient
	err := query.Preload("Lead").Order("created_at ASC, id ASC").Find(&clients).Error
	return clients, err
}
