package entity

import "gorm.io/gorm"

// AutoMigrate creates or updates every CRM table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Lead{},
		&ActiveClient{},
		&DroppedClient{},
		&ActivityLog{},
	)
}
