package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
)

// MilestoneKey names one of the fixed lead milestones.
type MilestoneKey string

const (
	MilestoneEnvioPropuesta      MilestoneKey = "envio_propuesta"
	MilestoneEnvioContrato       MilestoneKey = "envio_contrato"
	MilestonePagoPrimer50        MilestoneKey = "pago_primer_50"
	MilestoneEnvioCapacitaciones MilestoneKey = "envio_capacitaciones"
	MilestoneEnvioAccesos        MilestoneKey = "envio_accesos"
	MilestonePago50Final         MilestoneKey = "pago_50_final"
	MilestoneIAActivada          MilestoneKey = "ia_activada"
)

// MilestoneKeys lists the milestones in display order.
var MilestoneKeys = []MilestoneKey{
	MilestoneEnvioPropuesta,
	MilestoneEnvioContrato,
	MilestonePagoPrimer50,
	MilestoneEnvioCapacitaciones,
	MilestoneEnvioAccesos,
	MilestonePago50Final,
	MilestoneIAActivada,
}

func (k MilestoneKey) Valid() bool {
	for _, key := range MilestoneKeys {
		if key == k {
			return true
		}
	}
	return false
}

// Hitos holds the milestone flags of a lead. Stored as one JSON column.
type Hitos struct {
	EnvioPropuesta      bool `json:"envio_propuesta"`
	EnvioContrato       bool `json:"envio_contrato"`
	PagoPrimer50        bool `json:"pago_primer_50"`
	EnvioCapacitaciones bool `json:"envio_capacitaciones"`
	EnvioAccesos        bool `json:"envio_accesos"`
	Pago50Final         bool `json:"pago_50_final"`
	IAActivada          bool `json:"ia_activada"`
}

func (h *Hitos) flag(key MilestoneKey) *bool {
	switch key {
	case MilestoneEnvioPropuesta:
		return &h.EnvioPropuesta
	case MilestoneEnvioContrato:
		return &h.EnvioContrato
	case MilestonePagoPrimer50:
		return &h.PagoPrimer50
	case MilestoneEnvioCapacitaciones:
		return &h.EnvioCapacitaciones
	case MilestoneEnvioAccesos:
		return &h.EnvioAccesos
	case MilestonePago50Final:
		return &h.Pago50Final
	case MilestoneIAActivada:
		return &h.IAActivada
	}
	return nil
}

// Get reports the flag for key. Unknown keys read as false.
func (h Hitos) Get(key MilestoneKey) bool {
	if f := h.flag(key); f != nil {
		return *f
	}
	return false
}

// Toggle flips the flag for key and reports whether key was known.
func (h *Hitos) Toggle(key MilestoneKey) bool {
	f := h.flag(key)
	if f == nil {
		return false
	}
	*f = !*f
	return true
}

// Count returns how many milestones are done.
func (h Hitos) Count() int {
	n := 0
	for _, key := range MilestoneKeys {
		if h.Get(key) {
			n++
		}
	}
	return n
}

// Progress returns the completed share as a rounded percentage.
func (h Hitos) Progress() int {
	return int(math.Round(100 * float64(h.Count()) / float64(len(MilestoneKeys))))
}

// Map returns the flags keyed by milestone name.
func (h Hitos) Map() map[MilestoneKey]bool {
	m := make(map[MilestoneKey]bool, len(MilestoneKeys))
	for _, key := range MilestoneKeys {
		m[key] = h.Get(key)
	}
	return m
}

func (h Hitos) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *Hitos) Scan(value interface{}) error {
	*h = Hitos{}
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	}
	return errors.New("type assertion to []byte failed")
}
