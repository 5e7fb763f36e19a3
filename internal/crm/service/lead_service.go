package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LeadService struct {
	*base
}

// LeadContact is the contact block shared by lead and client requests.
type LeadContact struct {
	NombreContacto string `json:"nombre_contacto"`
	Sector         string `json:"sector"`
	Ciudad         string `json:"ciudad"`
	Telefono       string `json:"telefono"`
	Email          string `json:"email" binding:"omitempty,email"`
	Servicio       string `json:"servicio"`
}

type CreateLeadRequest struct {
	NombreEmpresa string `json:"nombre_empresa" binding:"required"`
	LeadContact
	Etapa               entity.LeadStage `json:"etapa" binding:"omitempty,lead_stage"`
	AssignedUserID      string           `json:"assigned_user_id"`
	ValorPropuesta      decimal.Decimal  `json:"valor_propuesta"`
	ValorMensualidad    decimal.Decimal  `json:"valor_mensualidad"`
	FechaPrimerContacto string           `json:"fecha_primer_contacto" binding:"omitempty,datetime=2006-01-02"`
	FechaUltimoContacto string           `json:"fecha_ultimo_contacto" binding:"omitempty,datetime=2006-01-02"`
	Notas               string           `json:"notas"`
}

func (s *LeadService) Create(ctx context.Context, req CreateLeadRequest, operatorID string) (*entity.Lead, error) {
	name := strings.TrimSpace(req.NombreEmpresa)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre_empresa is required", ErrInvalidInput)
	}
	stage := req.Etapa
	if stage == "" {
		stage = entity.StageNuevoLead
	}
	if err := checkLeadStage(stage); err != nil {
		return nil, err
	}
	if err := checkDate("fecha_primer_contacto", req.FechaPrimerContacto); err != nil {
		return nil, err
	}
	if err := checkDate("fecha_ultimo_contacto", req.FechaUltimoContacto); err != nil {
		return nil, err
	}

	lead := &entity.Lead{
		ID:                  uuid.New().String(),
		Etapa:               stage,
		AssignedUserID:      req.AssignedUserID,
		NombreEmpresa:       name,
		NombreContacto:      req.NombreContacto,
		Sector:              req.Sector,
		Ciudad:              req.Ciudad,
		Telefono:            normalizePhone(req.Telefono, s.phoneRegion),
		Email:               strings.TrimSpace(req.Email),
		Servicio:            req.Servicio,
		ValorPropuesta:      req.ValorPropuesta,
		ValorMensualidad:    req.ValorMensualidad,
		FechaPrimerContacto: req.FechaPrimerContacto,
		FechaUltimoContacto: req.FechaUltimoContacto,
		Notas:               req.Notas,
	}

	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Lead.Create(ctx, lead); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionCreate,
			"", string(lead.Etapa), lead.NombreEmpresa, operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	s.notify(ctx, events.BoardLeads, lead.ID, entity.ActionCreate)
	return lead, nil
}

func (s *LeadService) Get(ctx context.Context, id string) (*entity.Lead, error) {
	return s.repos.Lead.FindByID(ctx, id)
}

type LeadFilter struct {
	Keyword          string
	Etapa            entity.LeadStage
	AssignedUserID   string
	IncludeConverted bool
}

// List returns non-deleted leads. Converted leads are only included on request.
func (s *LeadService) List(ctx context.Context, filter LeadFilter) ([]entity.Lead, error) {
	if filter.Etapa != "" {
		if err := checkLeadStage(filter.Etapa); err != nil {
			return nil, err
		}
	}
	leads, err := s.repos.Lead.List(ctx, leadListParams(filter))
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	if filter.Keyword == "" {
		return leads, nil
	}

	out := leads[:0]
	for _, l := range leads {
		if matchKeyword(filter.Keyword, l.NombreEmpresa, l.NombreContacto, l.Ciudad, l.Sector) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Board returns the pipeline columns in stage order.
func (s *LeadService) Board(ctx context.Context, filter LeadFilter) ([]LeadColumn, error) {
	filter.IncludeConverted = false
	filter.Etapa = ""
	leads, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return PartitionLeads(leads), nil
}

type UpdateLeadRequest struct {
	NombreEmpresa       *string           `json:"nombre_empresa"`
	NombreContacto      *string           `json:"nombre_contacto"`
	Sector              *string           `json:"sector"`
	Ciudad              *string           `json:"ciudad"`
	Telefono            *string           `json:"telefono"`
	Email               *string           `json:"email" binding:"omitempty,email"`
	Servicio            *string           `json:"servicio"`
	Etapa               *entity.LeadStage `json:"etapa" binding:"omitempty,lead_stage"`
	AssignedUserID      *string           `json:"assigned_user_id"`
	ValorPropuesta      *decimal.Decimal  `json:"valor_propuesta"`
	ValorMensualidad    *decimal.Decimal  `json:"valor_mensualidad"`
	FechaPrimerContacto *string           `json:"fecha_primer_contacto" binding:"omitempty,datetime=2006-01-02"`
	FechaUltimoContacto *string           `json:"fecha_ultimo_contacto" binding:"omitempty,datetime=2006-01-02"`
	Notas               *string           `json:"notas"`
}

// applyContact copies the provided contact fields onto lead.
func (req UpdateLeadRequest) applyContact(lead *entity.Lead, phoneRegion string) error {
	if req.NombreEmpresa != nil {
		name := strings.TrimSpace(*req.NombreEmpresa)
		if name == "" {
			return fmt.Errorf("%w: nombre_empresa cannot be empty", ErrInvalidInput)
		}
		lead.NombreEmpresa = name
	}
	if req.NombreContacto != nil {
		lead.NombreContacto = *req.NombreContacto
	}
	if req.Sector != nil {
		lead.Sector = *req.Sector
	}
	if req.Ciudad != nil {
		lead.Ciudad = *req.Ciudad
	}
	if req.Telefono != nil {
		lead.Telefono = normalizePhone(*req.Telefono, phoneRegion)
	}
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.Servicio != nil {
		lead.Servicio = *req.Servicio
	}
	if req.AssignedUserID != nil {
		lead.AssignedUserID = *req.AssignedUserID
	}
	if req.ValorPropuesta != nil {
		lead.ValorPropuesta = *req.ValorPropuesta
	}
	if req.ValorMensualidad != nil {
		lead.ValorMensualidad = *req.ValorMensualidad
	}
	if req.FechaPrimerContacto != nil {
		if err := checkDate("fecha_primer_contacto", *req.FechaPrimerContacto); err != nil {
			return err
		}
		lead.FechaPrimerContacto = *req.FechaPrimerContacto
	}
	if req.FechaUltimoContacto != nil {
		if err := checkDate("fecha_ultimo_contacto", *req.FechaUltimoContacto); err != nil {
			return err
		}
		lead.FechaUltimoContacto = *req.FechaUltimoContacto
	}
	if req.Notas != nil {
		lead.Notas = *req.Notas
	}
	return nil
}

// Update writes the provided fields. A stage change is logged as such.
func (s *LeadService) Update(ctx context.Context, id string, req UpdateLeadRequest, operatorID string) (*entity.Lead, error) {
	var lead *entity.Lead
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		var err error
		lead, err = repos.Lead.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := req.applyContact(lead, s.phoneRegion); err != nil {
			return err
		}

		from := lead.Etapa
		if req.Etapa != nil && *req.Etapa != lead.Etapa {
			if err := checkLeadStage(*req.Etapa); err != nil {
				return err
			}
			lead.Etapa = *req.Etapa
		}
		if err := repos.Lead.Update(ctx, lead); err != nil {
			return err
		}
		if from != lead.Etapa {
			return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionStageChange,
				string(from), string(lead.Etapa), "", operatorID)
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionUpdate,
			"", "", "", operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}

	s.notify(ctx, events.BoardLeads, lead.ID, entity.ActionUpdate)
	return lead, nil
}

// SetStage moves a lead to stage. Setting the current stage writes nothing.
// Any stage may follow any other.
func (s *LeadService) SetStage(ctx context.Context, id string, stage entity.LeadStage, operatorID string) (*entity.Lead, error) {
	if err := checkLeadStage(stage); err != nil {
		return nil, err
	}

	var (
		lead    *entity.Lead
		changed bool
	)
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		var err error
		lead, err = repos.Lead.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if lead.Etapa == stage {
			return nil
		}
		from := lead.Etapa
		lead.Etapa = stage
		if err := repos.Lead.Update(ctx, lead); err != nil {
			return err
		}
		changed = true
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionStageChange,
			string(from), string(stage), "", operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("set lead stage: %w", err)
	}

	if changed {
		s.logger.Info("lead stage changed", zap.String("lead_id", lead.ID), zap.String("etapa", string(stage)))
		s.notify(ctx, events.BoardLeads, lead.ID, entity.ActionStageChange)
	}
	return lead, nil
}

// ToggleMilestone flips exactly one milestone. The stage is left alone.
func (s *LeadService) ToggleMilestone(ctx context.Context, id string, key entity.MilestoneKey, operatorID string) (*entity.Lead, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMilestone, key)
	}

	var lead *entity.Lead
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		var err error
		lead, err = repos.Lead.FindByID(ctx, id)
		if err != nil {
			return err
		}
		lead.Hitos.Toggle(key)
		if err := repos.Lead.Update(ctx, lead); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionMilestoneToggle,
			"", fmt.Sprintf("%s=%t", key, lead.Hitos.Get(key)), "", operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("toggle milestone: %w", err)
	}

	s.notify(ctx, events.BoardLeads, lead.ID, entity.ActionMilestoneToggle)
	return lead, nil
}

// Delete soft-deletes the lead.
func (s *LeadService) Delete(ctx context.Context, id, operatorID string) error {
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Lead.SoftDelete(ctx, id); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, id, entity.ActionDelete,
			"", "", "", operatorID)
	})
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}

	s.notify(ctx, events.BoardLeads, id, entity.ActionDelete)
	return nil
}

// Activity returns the audit trail of a lead, newest first. The lead may
// have been dropped or purged since.
func (s *LeadService) Activity(ctx context.Context, id string) ([]entity.ActivityLog, error) {
	return s.repos.ActivityLog.FindByEntity(ctx, entity.ActivityEntityLead, id)
}
