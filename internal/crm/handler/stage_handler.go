package handler

import (
	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/gin-gonic/gin"
)

type StageHandler struct{}

// List GET /stages
func (h *StageHandler) List(c *gin.Context) {
	Success(c, gin.H{
		"lead_stages":    entity.LeadStages,
		"service_stages": entity.ServiceStages,
		"milestones":     entity.MilestoneKeys,
		"dropped_types":  []entity.DroppedType{entity.DroppedTypeLead, entity.DroppedTypeActive},
	})
}
