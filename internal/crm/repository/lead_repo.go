package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// FindByID returns a non-deleted lead. Converted leads are still returned.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	var lead entity.Lead
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&lead).Error
	if err != nil {
		return nil, translate(err)
	}
	return &lead, nil
}

// Exists reports whether any row, deleted or not, uses id.
func (r *LeadRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Lead{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

// MarkConverted sets is_converted on a live lead that is not converted yet.
// It reports false when another writer converted the lead first.
func (r *LeadRepository) MarkConverted(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Lead{}).
		Where("id = ? AND is_deleted = ? AND is_converted = ?", id, false, false).
		Updates(map[string]interface{}{"is_converted": true, "updated_at": time.Now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *LeadRepository) SoftDelete(ctx context.Context, id string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entity.Lead{}).
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

// Restore clears the soft-delete flags of a deleted lead.
func (r *LeadRepository) Restore(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&entity.Lead{}).
		Where("id = ? AND is_deleted = ?", id, true).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete removes the row regardless of its flags.
func (r *LeadRepository) HardDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Lead{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type LeadListParams struct {
	Etapa            entity.LeadStage
	AssignedUserID   string
	IncludeConverted bool
}

// List returns non-deleted leads in insertion order.
func (r *LeadRepository) List(ctx context.Context, params LeadListParams) ([]entity.Lead, error) {
	query := r.db.WithContext(ctx).Model(&entity.Lead{}).Where("is_deleted = ?", false)
	if !params.IncludeConverted {
		query = query.Where("is_converted = ?", false)
	}
	if params.Etapa != "" {
		query = query.Where("etapa = ?", params.Etapa)
	}
	if params.AssignedUserID != "" {
		query = query.Where("assigned_user_id = ?", params.AssignedUserID)
	}

	var leads []entity.Lead
	err := query.Order("created_at ASC, id ASC").Find(&leads).Error
	return leads, err
}
