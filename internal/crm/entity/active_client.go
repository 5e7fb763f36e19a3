package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActiveClient is a converted lead receiving billed service. Contact data
// lives on the backing Lead.
type ActiveClient struct {
	ID             string       `json:"id" gorm:"primaryKey;size:36"`
	LeadID         string       `json:"lead_id" gorm:"size:36;not null;index"`
	Lead           *Lead        `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	EstadoServicio ServiceStage `json:"estado_servicio" gorm:"size:30;not null;index"`

	FechaInicioServicio  string          `json:"fecha_inicio_servicio" gorm:"size:10"`
	FechaCorte           string          `json:"fecha_corte" gorm:"size:50"` // free text, e.g. "Día 5"
	PagoMesActual        bool            `json:"pago_mes_actual" gorm:"not null;default:false"`
	ValorMensualServicio decimal.Decimal `json:"valor_mensual_servicio" gorm:"type:decimal(14,2);not null;default:0"`

	IsDeleted bool       `json:"is_deleted" gorm:"not null;default:false;index"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (ActiveClient) TableName() string {
	return "crm_active_clients"
}

// Name returns the company name of the backing lead when loaded.
func (c ActiveClient) Name() string {
	if c.Lead == nil {
		return ""
	}
	return c.Lead.NombreEmpresa
}
