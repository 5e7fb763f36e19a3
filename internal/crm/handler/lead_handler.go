package handler

import (
	"strconv"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LeadHandler struct {
	svc       *service.LeadService
	lifecycle *service.LifecycleService
	export    *service.ExportService
	logger    *zap.Logger
}

func leadFilter(c *gin.Context) service.LeadFilter {
	includeConverted, _ := strconv.ParseBool(c.Query("include_converted"))
	return service.LeadFilter{
		Keyword:          c.Query("keyword"),
		Etapa:            entity.LeadStage(c.Query("etapa")),
		AssignedUserID:   c.Query("assigned_user_id"),
		IncludeConverted: includeConverted,
	}
}

// List GET /leads
func (h *LeadHandler) List(c *gin.Context) {
	leads, err := h.svc.List(c.Request.Context(), leadFilter(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{Items: leads, Total: len(leads)})
}

// Board GET /leads/board
func (h *LeadHandler) Board(c *gin.Context) {
	columns, err := h.svc.Board(c.Request.Context(), leadFilter(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"columns": columns})
}

// Export GET /leads/export
func (h *LeadHandler) Export(c *gin.Context) {
	f, filename, err := h.export.ExportLeads(c.Request.Context(), leadFilter(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write excel", zap.Error(err))
	}
}

// Get GET /leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, lead)
}

// Activity GET /leads/:id/activity
func (h *LeadHandler) Activity(c *gin.Context) {
	logs, err := h.svc.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{Items: logs, Total: len(logs)})
}

// Create POST /leads
func (h *LeadHandler) Create(c *gin.Context) {
	var req service.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	lead, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, lead)
}

// Update PUT /leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	var req service.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	lead, err := h.svc.Update(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, lead)
}

type setLeadStageRequest struct {
	Etapa entity.LeadStage `json:"etapa" binding:"required,lead_stage"`
}

// SetStage PATCH /leads/:id/stage
func (h *LeadHandler) SetStage(c *gin.Context) {
	var req setLeadStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	lead, err := h.svc.SetStage(c.Request.Context(), c.Param("id"), req.Etapa, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, lead)
}

// ToggleMilestone PATCH /leads/:id/milestones/:key
func (h *LeadHandler) ToggleMilestone(c *gin.Context) {
	key := entity.MilestoneKey(c.Param("key"))
	lead, err := h.svc.ToggleMilestone(c.Request.Context(), c.Param("id"), key, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"lead": lead, "progress": lead.Progress()})
}

// Delete DELETE /leads/:id
func (h *LeadHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, nil)
}

// Convert POST /leads/:id/convert
func (h *LeadHandler) Convert(c *gin.Context) {
	var req service.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	client, err := h.lifecycle.Convert(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, client)
}

// Drop POST /leads/:id/drop
func (h *LeadHandler) Drop(c *gin.Context) {
	var req service.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	dropped, err := h.lifecycle.DropLead(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, dropped)
}
