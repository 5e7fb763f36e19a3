package handler

import (
	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DroppedClientHandler struct {
	svc       *service.DroppedClientService
	lifecycle *service.LifecycleService
	logger    *zap.Logger
}

// List GET /dropped-clients
func (h *DroppedClientHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), entity.DroppedType(c.Query("type")), c.Query("keyword"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{Items: items, Total: len(items)})
}

// Get GET /dropped-clients/:id
func (h *DroppedClientHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, item)
}

// Update PUT /dropped-clients/:id
func (h *DroppedClientHandler) Update(c *gin.Context) {
	var req service.UpdateDroppedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), req, GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, item)
}

// Activity GET /dropped-clients/:id/activity
func (h *DroppedClientHandler) Activity(c *gin.Context) {
	logs, err := h.svc.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, ListResponse{Items: logs, Total: len(logs)})
}

// Recover POST /dropped-clients/:id/recover
func (h *DroppedClientHandler) Recover(c *gin.Context) {
	result, err := h.lifecycle.Recover(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// Purge DELETE /dropped-clients/:id
func (h *DroppedClientHandler) Purge(c *gin.Context) {
	if err := h.lifecycle.Purge(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, nil)
}
