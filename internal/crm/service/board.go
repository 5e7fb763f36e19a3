package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
)

// LeadCard is a lead as shown on the pipeline board.
type LeadCard struct {
	entity.Lead
	Progress int `json:"progress"`
}

type LeadColumn struct {
	Stage entity.LeadStage `json:"stage"`
	Count int              `json:"count"`
	Leads []LeadCard       `json:"leads"`
}

type ClientColumn struct {
	Stage   entity.ServiceStage   `json:"stage"`
	Count   int                   `json:"count"`
	Clients []entity.ActiveClient `json:"clients"`
}

// ListActiveLeads drops deleted and converted leads, keeping order.
func ListActiveLeads(leads []entity.Lead) []entity.Lead {
	out := make([]entity.Lead, 0, len(leads))
	for _, l := range leads {
		if l.OnBoard() {
			out = append(out, l)
		}
	}
	return out
}

// ListActiveClients drops deleted clients, keeping order.
func ListActiveClients(clients []entity.ActiveClient) []entity.ActiveClient {
	out := make([]entity.ActiveClient, 0, len(clients))
	for _, c := range clients {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out
}

// PartitionLeads groups on-board leads into one column per stage, in board order.
func PartitionLeads(leads []entity.Lead) []LeadColumn {
	columns := make([]LeadColumn, len(entity.LeadStages))
	for i, stage := range entity.LeadStages {
		columns[i] = LeadColumn{Stage: stage, Leads: []LeadCard{}}
	}
	for _, l := range ListActiveLeads(leads) {
		i := l.Etapa.Index()
		if i < 0 {
			continue
		}
		columns[i].Leads = append(columns[i].Leads, LeadCard{Lead: l, Progress: l.Progress()})
		columns[i].Count++
	}
	return columns
}

// PartitionClients groups non-deleted clients by service stage, in board order.
func PartitionClients(clients []entity.ActiveClient) []ClientColumn {
	columns := make([]ClientColumn, len(entity.ServiceStages))
	for i, stage := range entity.ServiceStages {
		columns[i] = ClientColumn{Stage: stage, Clients: []entity.ActiveClient{}}
	}
	for _, c := range ListActiveClients(clients) {
		i := c.EstadoServicio.Index()
		if i < 0 {
			continue
		}
		columns[i].Clients = append(columns[i].Clients, c)
		columns[i].Count++
	}
	return columns
}

func checkDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
	}
	return nil
}

func checkLeadStage(stage entity.LeadStage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	return nil
}

func checkServiceStage(stage entity.ServiceStage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}
	return nil
}

func today() string {
	return time.Now().Format(DateLayout)
}
