package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ActiveClientService struct {
	*base
}

// CreateActiveClientRequest registers a client that never went through the
// pipeline. A closed, converted backing lead is created with it.
type CreateActiveClientRequest struct {
	NombreEmpresa string `json:"nombre_empresa" binding:"required"`
	LeadContact
	AssignedUserID       string              `json:"assigned_user_id"`
	EstadoServicio       entity.ServiceStage `json:"estado_servicio" binding:"omitempty,service_stage"`
	FechaInicioServicio  string              `json:"fecha_inicio_servicio" binding:"omitempty,datetime=2006-01-02"`
	FechaCorte           string              `json:"fecha_corte"`
	PagoMesActual        bool                `json:"pago_mes_actual"`
	ValorMensualServicio decimal.Decimal     `json:"valor_mensual_servicio"`
	Notas                string              `json:"notas"`
}

func (s *ActiveClientService) Create(ctx context.Context, req CreateActiveClientRequest, operatorID string) (*entity.ActiveClient, error) {
	name := strings.TrimSpace(req.NombreEmpresa)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre_empresa is required", ErrInvalidInput)
	}
	stage := req.EstadoServicio
	if stage == "" {
		stage = entity.ServiceEnServicio
	}
	if err := checkServiceStage(stage); err != nil {
		return nil, err
	}
	if err := checkDate("fecha_inicio_servicio", req.FechaInicioServicio); err != nil {
		return nil, err
	}

	lead := &entity.Lead{
		ID:               uuid.New().String(),
		Etapa:            entity.StageLeadCerrado,
		AssignedUserID:   req.AssignedUserID,
		NombreEmpresa:    name,
		NombreContacto:   req.NombreContacto,
		Sector:           req.Sector,
		Ciudad:           req.Ciudad,
		Telefono:         normalizePhone(req.Telefono, s.phoneRegion),
		Email:            strings.TrimSpace(req.Email),
		Servicio:         req.Servicio,
		ValorMensualidad: req.ValorMensualServicio,
		Notas:            req.Notas,
		IsConverted:      true,
	}
	client := &entity.ActiveClient{
		ID:                   uuid.New().String(),
		LeadID:               lead.ID,
		EstadoServicio:       stage,
		FechaInicioServicio:  req.FechaInicioServicio,
		FechaCorte:           req.FechaCorte,
		PagoMesActual:        req.PagoMesActual,
		ValorMensualServicio: req.ValorMensualServicio,
	}

	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Lead.Create(ctx, lead); err != nil {
			return err
		}
		if err := repos.ActiveClient.Create(ctx, client); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityClient, client.ID, entity.ActionCreate,
			"", string(client.EstadoServicio), lead.NombreEmpresa, operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("create active client: %w", err)
	}

	client.Lead = lead
	s.notify(ctx, events.BoardClients, client.ID, entity.ActionCreate)
	return client, nil
}

func (s *ActiveClientService) Get(ctx context.Context, id string) (*entity.ActiveClient, error) {
	return s.repos.ActiveClient.FindByID(ctx, id)
}

type ActiveClientFilter struct {
	Keyword        string
	EstadoServicio entity.ServiceStage
}

func (s *ActiveClientService) List(ctx context.Context, filter ActiveClientFilter) ([]entity.ActiveClient, error) {
	if filter.EstadoServicio != "" {
		if err := checkServiceStage(filter.EstadoServicio); err != nil {
			return nil, err
		}
	}
	clients, err := s.repos.ActiveClient.List(ctx, repository.ActiveClientListParams{
		EstadoServicio: filter.EstadoServicio,
	})
	if err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	if filter.Keyword == "" {
		return clients, nil
	}

	out := clients[:0]
	for _, c := range clients {
		if c.Lead != nil && matchKeyword(filter.Keyword, c.Lead.NombreEmpresa, c.Lead.NombreContacto, c.Lead.Ciudad) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ActiveClientService) Board(ctx context.Context, filter ActiveClientFilter) ([]ClientColumn, error) {
	filter.EstadoServicio = ""
	clients, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return PartitionClients(clients), nil
}

// UpdateActiveClientRequest edits service fields and, through the embedded
// lead block, the contact data of the backing lead.
type UpdateActiveClientRequest struct {
	UpdateLeadRequest
	EstadoServicio       *entity.ServiceStage `json:"estado_servicio" binding:"omitempty,service_stage"`
	FechaInicioServicio  *string              `json:"fecha_inicio_servicio" binding:"omitempty,datetime=2006-01-02"`
	FechaCorte           *string              `json:"fecha_corte"`
	PagoMesActual        *bool                `json:"pago_mes_actual"`
	ValorMensualServicio *decimal.Decimal     `json:"valor_mensual_servicio"`
}

func (s *ActiveClientService) Update(ctx context.Context, id string, req UpdateActiveClientRequest, operatorID string) (*entity.ActiveClient, error) {
	// Stage moves on a client lead are meaningless; the lead stays closed.
	req.Etapa = nil

	var client *entity.ActiveClient
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		var err error
		client, err = repos.ActiveClient.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.EstadoServicio != nil {
			if err := checkServiceStage(*req.EstadoServicio); err != nil {
				return err
			}
			client.EstadoServicio = *req.EstadoServicio
		}
		if req.FechaInicioServicio != nil {
			if err := checkDate("fecha_inicio_servicio", *req.FechaInicioServicio); err != nil {
				return err
			}
			client.FechaInicioServicio = *req.FechaInicioServicio
		}
		if req.FechaCorte != nil {
			client.FechaCorte = *req.FechaCorte
		}
		if req.PagoMesActual != nil {
			client.PagoMesActual = *req.PagoMesActual
		}
		if req.ValorMensualServicio != nil {
			client.ValorMensualServicio = *req.ValorMensualServicio
		}
		if err := repos.ActiveClient.Update(ctx, client); err != nil {
			return err
		}

		if client.Lead != nil {
			if err := req.applyContact(client.Lead, s.phoneRegion); err != nil {
				return err
			}
			if err := repos.Lead.Update(ctx, client.Lead); err != nil {
				return err
			}
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityClient, client.ID, entity.ActionUpdate,
			"", "", "", operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("update active client: %w", err)
	}

	s.notify(ctx, events.BoardClients, client.ID, entity.ActionUpdate)
	return client, nil
}

// SetStage moves a client to stage. Setting the current stage writes nothing.
func (s *ActiveClientService) SetStage(ctx context.Context, id string, stage entity.ServiceStage, operatorID string) (*entity.ActiveClient, error) {
	if err := checkServiceStage(stage); err != nil {
		return nil, err
	}

	var (
		client  *entity.ActiveClient
		changed bool
	)
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		var err error
		client, err = repos.ActiveClient.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if client.EstadoServicio == stage {
			return nil
		}
		from := client.EstadoServicio
		client.EstadoServicio = stage
		if err := repos.ActiveClient.Update(ctx, client); err != nil {
			return err
		}
		changed = true
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityClient, client.ID, entity.ActionStageChange,
			string(from), string(stage), "", operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("set service stage: %w", err)
	}

	if changed {
		s.notify(ctx, events.BoardClients, client.ID, entity.ActionStageChange)
	}
	return client, nil
}

// SetPayment sets the current-month paid flag, or flips it when paid is nil.
// The flag is never reset automatically.
func (s *ActiveClientService) SetPayment(ctx context.Context, id string, paid *bool, operatorID string) (*entity.ActiveClient, error) {
	var client *entity.ActiveClient
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		var err error
		client, err = repos.ActiveClient.FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := client.PagoMesActual
		if paid == nil {
			client.PagoMesActual = !client.PagoMesActual
		} else {
			client.PagoMesActual = *paid
		}
		if err := repos.ActiveClient.Update(ctx, client); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityClient, client.ID, entity.ActionPaymentToggle,
			strconv.FormatBool(from), strconv.FormatBool(client.PagoMesActual), "", operatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("set payment: %w", err)
	}

	s.notify(ctx, events.BoardClients, client.ID, entity.ActionPaymentToggle)
	return client, nil
}

// Delete soft-deletes the client. Its backing lead stays converted.
func (s *ActiveClientService) Delete(ctx context.Context, id, operatorID string) error {
	err := s.inTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.ActiveClient.SoftDelete(ctx, id); err != nil {
			return err
		}
		return repos.ActivityLog.Log(ctx, entity.ActivityEntityClient, id, entity.ActionDelete,
			"", "", "", operatorID)
	})
	if err != nil {
		return fmt.Errorf("delete active client: %w", err)
	}

	s.notify(ctx, events.BoardClients, id, entity.ActionDelete)
	return nil
}

func (s *ActiveClientService) Activity(ctx context.Context, id string) ([]entity.ActivityLog, error) {
	return s.repos.ActivityLog.FindByEntity(ctx, entity.ActivityEntityClient, id)
}
