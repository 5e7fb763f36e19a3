package entity

import "time"

// DroppedType tells which store a dropped record came from.
type DroppedType string

const (
	DroppedTypeLead   DroppedType = "lead"
	DroppedTypeActive DroppedType = "active"
)

func (t DroppedType) Valid() bool {
	return t == DroppedTypeLead || t == DroppedTypeActive
}

// DroppedClient archives a dropped lead or active client. OriginalData is
// the API representation of the source record at drop time and never
// changes. Entries leave the archive only by recovery or purge, both of
// which remove the row.
type DroppedClient struct {
	ID           string      `json:"id" gorm:"primaryKey;size:36"`
	OriginalID   string      `json:"original_id" gorm:"size:36;not null;index"`
	Type         DroppedType `json:"type" gorm:"size:10;not null;index"`
	Reason       string      `json:"reason" gorm:"type:text;not null"`
	DroppedDate  string      `json:"dropped_date" gorm:"size:10;not null"`
	OriginalData JSONB       `json:"original_data" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DroppedClient) TableName() string {
	return "crm_dropped_clients"
}

// Name returns the company name recorded in the snapshot.
func (d DroppedClient) Name() string {
	if name, ok := d.OriginalData["nombre_empresa"].(string); ok {
		return name
	}
	if lead, ok := d.OriginalData["lead"].(map[string]interface{}); ok {
		if name, ok := lead["nombre_empresa"].(string); ok {
			return name
		}
	}
	return ""
}
