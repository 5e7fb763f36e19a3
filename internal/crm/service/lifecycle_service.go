package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Transition kinds reported to metrics.
const (
	TransitionConvert    = "convert"
	TransitionDropLead   = "drop_lead"
	TransitionDropActive = "drop_active"
	TransitionRecover    = "recover"
	TransitionPurge      = "purge"
)

// LifecycleService runs the multi-record transitions: conversion, drop,
// recovery and purge. Each one commits completely or not at all.
type LifecycleService struct {
	*base
}

type ConvertRequest struct {
	ValorMensual *decimal.Decimal `json:"valor_mensual"`
	FechaInicio  string           `json:"fecha_inicio" binding:"omitempty,datetime=2006-01-02"`
	FechaCorte   string           `json:"fecha_corte"`
	PagoMes      bool             `json:"pago_mes"`
}

// Convert turns a closed lead into an active client. The lead row is kept
// with is_converted set. An absent valor_mensual falls back to the lead's
// monthly value and an empty fecha_inicio to today.
func (s *LifecycleService) Convert(ctx context.Context, leadID string, req ConvertRequest, operatorID string) (*entity.ActiveClient, error) {
	if err := checkDate("fecha_inicio", req.FechaInicio); err != nil {
		return nil, err
	}

	var client *entity.ActiveClient
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		lead, err := repos.Lead.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.IsConverted {
			return ErrAlreadyConverted
		}
		if lead.Etapa != entity.StageLeadCerrado {
			return fmt.Errorf("%w: current stage %q", ErrNotClosed, lead.Etapa)
		}

		// The conditional write serializes concurrent conversions of one lead.
		marked, err := repos.Lead.MarkConverted(ctx, lead.ID)
		if err != nil {
			return err
		}
		if !marked {
			return ErrAlreadyConverted
		}
		lead.IsConverted = true

		valor := lead.ValorMensualidad
		if req.ValorMensual != nil {
			valor = *req.ValorMensual
		}
		inicio := req.FechaInicio
		if inicio == "" {
			inicio = today()
		}
		client = &entity.ActiveClient{
			ID:                   uuid.New().String(),
			LeadID:               lead.ID,
			EstadoServicio:       entity.ServiceEnServicio,
			FechaInicioServicio:  inicio,
			FechaCorte:           req.FechaCorte,
			PagoMesActual:        req.PagoMes,
			ValorMensualServicio: valor,
		}
		if err := repos.ActiveClient.Create(ctx, client); err != nil {
			return err
		}
		client.Lead = lead

		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionConvert,
			string(lead.Etapa), string(entity.ServiceEnServicio), client.ID, operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("convert lead: %w", err)
	}

	s.metrics.RecordTransition(TransitionConvert)
	s.logger.Info("lead converted", zap.String("lead_id", leadID), zap.String("client_id", client.ID))
	s.notify(ctx, events.BoardLeads, leadID, entity.ActionConvert)
	s.notify(ctx, events.BoardClients, client.ID, entity.ActionCreate)
	return client, nil
}

type DropRequest struct {
	Reason      string `json:"reason" binding:"required"`
	DroppedDate string `json:"dropped_date" binding:"required,datetime=2006-01-02"`
	Confirm     bool   `json:"confirm"`
}

func (req DropRequest) check() error {
	if !req.Confirm {
		return ErrDropNotConfirmed
	}
	if strings.TrimSpace(req.Reason) == "" {
		return ErrReasonRequired
	}
	if req.DroppedDate == "" {
		return fmt.Errorf("%w: dropped_date is required", ErrInvalidInput)
	}
	return checkDate("dropped_date", req.DroppedDate)
}

// DropLead archives a lead and removes it from the pipeline. A lead that
// still backs a client row cannot be dropped.
func (s *LifecycleService) DropLead(ctx context.Context, leadID string, req DropRequest, operatorID string) (*entity.DroppedClient, error) {
	if err := req.check(); err != nil {
		return nil, err
	}

	var dropped *entity.DroppedClient
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		lead, err := repos.Lead.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		clients, err := repos.ActiveClient.CountByLead(ctx, lead.ID)
		if err != nil {
			return err
		}
		if clients > 0 {
			return ErrHasActiveClient
		}

		dropped, err = archive(ctx, repos, entity.DroppedTypeLead, lead.ID, lead, req)
		if err != nil {
			return err
		}
		if err := repos.Lead.HardDelete(ctx, lead.ID); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityLead, lead.ID, entity.ActionDrop,
			string(lead.Etapa), "", dropped.Reason, operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("drop lead: %w", err)
	}

	s.metrics.RecordTransition(TransitionDropLead)
	s.logger.Info("lead dropped", zap.String("lead_id", leadID), zap.String("dropped_id", dropped.ID))
	s.notify(ctx, events.BoardLeads, leadID, entity.ActionDrop)
	s.notify(ctx, events.BoardDropped, dropped.ID, entity.ActionCreate)
	return dropped, nil
}

// DropActiveClient archives a client together with its lead data. The
// backing lead row stays, converted and off the board.
func (s *LifecycleService) DropActiveClient(ctx context.Context, clientID string, req DropRequest, operatorID string) (*entity.DroppedClient, error) {
	if err := req.check(); err != nil {
		return nil, err
	}

	var dropped *entity.DroppedClient
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		client, err := repos.ActiveClient.FindByID(ctx, clientID)
		if err != nil {
			return err
		}

		dropped, err = archive(ctx, repos, entity.DroppedTypeActive, client.ID, client, req)
		if err != nil {
			return err
		}
		if err := repos.ActiveClient.HardDelete(ctx, client.ID); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityClient, client.ID, entity.ActionDrop,
			string(client.EstadoServicio), "", dropped.Reason, operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("drop active client: %w", err)
	}

	s.metrics.RecordTransition(TransitionDropActive)
	s.logger.Info("active client dropped", zap.String("client_id", clientID), zap.String("dropped_id", dropped.ID))
	s.notify(ctx, events.BoardClients, clientID, entity.ActionDrop)
	s.notify(ctx, events.BoardDropped, dropped.ID, entity.ActionCreate)
	return dropped, nil
}

func archive(ctx context.Context, repos *repository.Repositories, typ entity.DroppedType, originalID string, record interface{}, req DropRequest) (*entity.DroppedClient, error) {
	snapshot, err := entity.ToJSONB(record)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	dropped := &entity.DroppedClient{
		ID:           uuid.New().String(),
		OriginalID:   originalID,
		Type:         typ,
		Reason:       strings.TrimSpace(req.Reason),
		DroppedDate:  req.DroppedDate,
		OriginalData: snapshot,
	}
	if err := repos.DroppedClient.Create(ctx, dropped); err != nil {
		return nil, err
	}
	return dropped, nil
}

// RecoverResult holds the record rebuilt from the archive. Exactly one of
// Lead and ActiveClient is set.
type RecoverResult struct {
	Type         entity.DroppedType   `json:"type"`
	Lead         *entity.Lead         `json:"lead,omitempty"`
	ActiveClient *entity.ActiveClient `json:"active_client,omitempty"`
}

// Recover rebuilds the archived record and removes the archive entry. The
// original id is reused unless another row has taken it.
func (s *LifecycleService) Recover(ctx context.Context, droppedID, operatorID string) (*RecoverResult, error) {
	result := &RecoverResult{}
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		dropped, err := repos.DroppedClient.FindByID(ctx, droppedID)
		if err != nil {
			return err
		}
		result.Type = dropped.Type

		var entityType, recoveredID string
		switch dropped.Type {
		case entity.DroppedTypeLead:
			lead, err := recoverLead(ctx, repos, dropped)
			if err != nil {
				return err
			}
			result.Lead = lead
			entityType, recoveredID = entity.ActivityEntityLead, lead.ID
		case entity.DroppedTypeActive:
			client, err := recoverActiveClient(ctx, repos, dropped)
			if err != nil {
				return err
			}
			result.ActiveClient = client
			entityType, recoveredID = entity.ActivityEntityClient, client.ID
		default:
			return fmt.Errorf("%w: unknown type %q", ErrInvalidSnapshot, dropped.Type)
		}

		if err := repos.DroppedClient.HardDelete(ctx, dropped.ID); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entityType, recoveredID, entity.ActionRecover,
			"", "", dropped.ID, operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}

	s.metrics.RecordTransition(TransitionRecover)
	s.notify(ctx, events.BoardDropped, droppedID, entity.ActionRecover)
	if result.Lead != nil {
		s.logger.Info("lead recovered", zap.String("dropped_id", droppedID), zap.String("lead_id", result.Lead.ID))
		s.notify(ctx, events.BoardLeads, result.Lead.ID, entity.ActionRecover)
	} else {
		s.logger.Info("active client recovered", zap.String("dropped_id", droppedID), zap.String("client_id", result.ActiveClient.ID))
		s.notify(ctx, events.BoardClients, result.ActiveClient.ID, entity.ActionRecover)
	}
	return result, nil
}

func recoverLead(ctx context.Context, repos *repository.Repositories, dropped *entity.DroppedClient) (*entity.Lead, error) {
	var lead entity.Lead
	if err := dropped.OriginalData.Decode(&lead); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := restoreLead(ctx, repos, &lead, dropped.OriginalID); err != nil {
		return nil, err
	}
	return &lead, nil
}

// restoreLead validates a decoded lead and inserts it live.
func restoreLead(ctx context.Context, repos *repository.Repositories, lead *entity.Lead, fallbackID string) error {
	if strings.TrimSpace(lead.NombreEmpresa) == "" || !lead.Etapa.Valid() {
		return fmt.Errorf("%w: lead data incomplete", ErrInvalidSnapshot)
	}
	if lead.ID == "" {
		lead.ID = fallbackID
	}
	id, err := freeID(ctx, lead.ID, repos.Lead.Exists)
	if err != nil {
		return err
	}
	lead.ID = id
	lead.IsDeleted = false
	lead.DeletedAt = nil
	return repos.Lead.Create(ctx, lead)
}

func recoverActiveClient(ctx context.Context, repos *repository.Repositories, dropped *entity.DroppedClient) (*entity.ActiveClient, error) {
	var client entity.ActiveClient
	if err := dropped.OriginalData.Decode(&client); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !client.EstadoServicio.Valid() {
		return nil, fmt.Errorf("%w: client data incomplete", ErrInvalidSnapshot)
	}

	lead := client.Lead
	client.Lead = nil

	live, err := liveBackingLead(ctx, repos, client.LeadID)
	if err != nil {
		return nil, err
	}
	if !live {
		if lead == nil {
			return nil, fmt.Errorf("%w: backing lead is gone and not in the snapshot", ErrInvalidSnapshot)
		}
		lead.IsConverted = true
		if err := restoreLead(ctx, repos, lead, client.LeadID); err != nil {
			return nil, err
		}
		client.LeadID = lead.ID
	}

	if client.ID == "" {
		client.ID = dropped.OriginalID
	}
	id, err := freeID(ctx, client.ID, repos.ActiveClient.Exists)
	if err != nil {
		return nil, err
	}
	client.ID = id
	client.IsDeleted = false
	client.DeletedAt = nil
	if err := repos.ActiveClient.Create(ctx, &client); err != nil {
		return nil, err
	}

	return repos.ActiveClient.FindByID(ctx, client.ID)
}

// liveBackingLead reports whether leadID names a live lead. A soft-deleted
// backing lead is restored so the recovered client stays visible through it.
func liveBackingLead(ctx context.Context, repos *repository.Repositories, leadID string) (bool, error) {
	if leadID == "" {
		return false, nil
	}
	_, err := repos.Lead.FindByID(ctx, leadID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	err = repos.Lead.Restore(ctx, leadID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// freeID returns id when unused, otherwise a fresh one.
func freeID(ctx context.Context, id string, exists func(context.Context, string) (bool, error)) (string, error) {
	if id == "" {
		return uuid.New().String(), nil
	}
	taken, err := exists(ctx, id)
	if err != nil {
		return "", err
	}
	if taken {
		return uuid.New().String(), nil
	}
	return id, nil
}

// Purge deletes an archive entry for good.
func (s *LifecycleService) Purge(ctx context.Context, droppedID, operatorID string) error {
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		dropped, err := repos.DroppedClient.FindByID(ctx, droppedID)
		if err != nil {
			return err
		}
		if err := repos.DroppedClient.HardDelete(ctx, dropped.ID); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityDropped, dropped.ID, entity.ActionPurge,
			string(dropped.Type), "", dropped.OriginalID, operatorID)
	})
	if err != nil {
		return fmt.Errorf("purge dropped client: %w", err)
	}

	s.metrics.RecordTransition(TransitionPurge)
	s.notify(ctx, events.BoardDropped, droppedID, entity.ActionPurge)
	return nil
}
