package handler

import (
	"errors"
	"io"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ActiveClientHandler struct {
	svc       *service.ActiveClientService
	lifecycle *service.LifecycleService
	logger    *zap.Logger
}

func clientFilter(c *gin.Context) service.ActiveClientFilter {
	return service.ActiveClientFilter{
		Keyword:        c.Query("keyword"),
		EstadoServicio: entity.ServiceStage(c.Query("estado_servicio")),
	}
}

// List GET /active-clients
func (h *ActiveClientHandler) List(c *gin.Context) {
	clients, err := h.svc.List(c.Request.Context(), clientFilter(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{Items: clients, Total: len(clients)})
}

// Board GET /active-clients/board
func (h *ActiveClientHandler) Board(c *gin.Context) {
	columns, err := h.svc.Board(c.Request.Context(), clientFilter(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"columns": columns})
}

// Get GET /active-clients/:id
func (h *ActiveClientHandler) Get(c *gin.Context) {
	client, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, client)
}

// Activity GET /active-clients/:id/activity
func (h *ActiveClientHandler) Activity(c *gin.Context) {
	logs, err := h.svc.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{Items: logs, Total: len(logs)})
}

// Create POST /active-clients
func (h *ActiveClientHandler) Create(c *gin.Context) {
	var req service.CreateActiveClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	client, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, client)
}

// Update PUT /active-clients/:id
func (h *ActiveClientHandler) Update(c *gin.Context) {
	var req service.UpdateActiveClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	client, err := h.svc.Update(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, client)
}

type setServiceStageRequest struct {
	EstadoServicio entity.ServiceStage `json:"estado_servicio" binding:"required,service_stage"`
}

// SetStage PATCH /active-clients/:id/stage
func (h *ActiveClientHandler) SetStage(c *gin.Context) {
	var req setServiceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	client, err := h.svc.SetStage(c.Request.Context(), c.Param("id"), req.EstadoServicio, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, client)
}

type setPaymentRequest struct {
	PagoMesActual *bool `json:"pago_mes_actual"`
}

// SetPayment PATCH /active-clients/:id/payment
// An empty body flips the flag; {"pago_mes_actual": bool} sets it.
func (h *ActiveClientHandler) SetPayment(c *gin.Context) {
	var req setPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}
	client, err := h.svc.SetPayment(c.Request.Context(), c.Param("id"), req.PagoMesActual, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, client)
}

// Delete DELETE /active-clients/:id
func (h *ActiveClientHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, nil)
}

// Drop POST /active-clients/:id/drop
func (h *ActiveClientHandler) Drop(c *gin.Context) {
	var req service.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	dropped, err := h.lifecycle.DropActiveClient(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, dropped)
}
