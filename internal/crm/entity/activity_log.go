package entity

import "time"

// Activity entity types.
const (
	ActivityEntityLead    = "lead"
	ActivityEntityClient  = "active_client"
	ActivityEntityDropped = "dropped_client"
)

// Activity actions.
const (
	ActionCreate          = "create"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionStageChange     = "stage_change"
	ActionMilestoneToggle = "milestone_toggle"
	ActionPaymentToggle   = "payment_toggle"
	ActionConvert         = "convert"
	ActionDrop            = "drop"
	ActionRecover         = "recover"
	ActionPurge           = "purge"
)

// ActivityLog records one lifecycle change.
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	EntityType string `json:"entity_type" gorm:"size:30;not null;index:idx_crm_activity_entity"`
	EntityID   string `json:"entity_id" gorm:"size:36;not null;index:idx_crm_activity_entity"`

	Action     string `json:"action" gorm:"size:30;not null"`
	FromStatus string `json:"from_status" gorm:"size:50"`
	ToStatus   string `json:"to_status" gorm:"size:50"`
	Content    string `json:"content" gorm:"type:text"`

	OperatorID string    `json:"operator_id" gorm:"size:64"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "crm_activity_logs"
}
