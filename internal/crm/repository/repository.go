package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or is soft deleted.
var ErrNotFound = errors.New("record not found")

// Repositories groups the CRM stores.
type Repositories struct {
	Lead          *LeadRepository
	ActiveClient  *ActiveClientRepository
	DroppedClient *DroppedClientRepository
	ActivityLog   *ActivityLogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Lead:          NewLeadRepository(db),
		ActiveClient:  NewActiveClientRepository(db),
		DroppedClient: NewDroppedClientRepository(db),
		ActivityLog:   NewActivityLogRepository(db),
	}
}

// WithTx returns a set bound to tx. Use it inside db.Transaction callbacks.
func WithTx(tx *gorm.DB) *Repositories {
	return NewRepositories(tx)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
