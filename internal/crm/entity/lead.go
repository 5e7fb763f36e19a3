package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lead is a prospect moving through the sales pipeline.
type Lead struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Etapa          LeadStage `json:"etapa" gorm:"size:50;not null;index"`
	AssignedUserID string    `json:"assigned_user_id" gorm:"size:64;index"`

	NombreEmpresa  string `json:"nombre_empresa" gorm:"size:200;not null"`
	NombreContacto string `json:"nombre_contacto" gorm:"size:200"`
	Sector         string `json:"sector" gorm:"size:100"`
	Ciudad         string `json:"ciudad" gorm:"size:100"`
	Telefono       string `json:"telefono" gorm:"size:30"`
	Email          string `json:"email" gorm:"size:150"`
	Servicio       string `json:"servicio" gorm:"size:200"`

	ValorPropuesta   decimal.Decimal `json:"valor_propuesta" gorm:"type:decimal(14,2);not null;default:0"`
	ValorMensualidad decimal.Decimal `json:"valor_mensualidad" gorm:"type:decimal(14,2);not null;default:0"`

	FechaPrimerContacto string `json:"fecha_primer_contacto" gorm:"size:10"` // YYYY-MM-DD
	FechaUltimoContacto string `json:"fecha_ultimo_contacto" gorm:"size:10"`
	Notas               string `json:"notas" gorm:"type:text"`

	Hitos       Hitos `json:"hitos" gorm:"type:jsonb"`
	IsConverted bool  `json:"is_converted" gorm:"not null;default:false;index"`

	IsDeleted bool       `json:"is_deleted" gorm:"not null;default:false;index"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Lead) TableName() string {
	return "crm_leads"
}

// Progress returns the milestone completion percentage.
func (l Lead) Progress() int {
	return l.Hitos.Progress()
}

// OnBoard reports whether the lead belongs on the pipeline board.
func (l Lead) OnBoard() bool {
	return !l.IsDeleted && !l.IsConverted
}
