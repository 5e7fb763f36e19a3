package handler

import (
	"github.com/bitfantasy/nimo-crm/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the CRM API on an authenticated group. Reads are
// open to any caller; mutations need adminRole.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, adminRole string) {
	crm := api.Group("/crm")
	admin := middleware.RequireRole(adminRole)

	crm.GET("/stages", h.Stage.List)
	crm.GET("/events", h.SSE.Stream)

	leads := crm.Group("/leads")
	{
		leads.GET("", h.Lead.List)
		leads.GET("/board", h.Lead.Board)
		leads.GET("/export", h.Lead.Export)
		leads.GET("/:id", h.Lead.Get)
		leads.GET("/:id/activity", h.Lead.Activity)
		leads.POST("", admin, h.Lead.Create)
		leads.PUT("/:id", admin, h.Lead.Update)
		leads.PATCH("/:id/stage", admin, h.Lead.SetStage)
		leads.PATCH("/:id/milestones/:key", admin, h.Lead.ToggleMilestone)
		leads.DELETE("/:id", admin, h.Lead.Delete)
		leads.POST("/:id/convert", admin, h.Lead.Convert)
		leads.POST("/:id/drop", admin, h.Lead.Drop)
	}

	clients := crm.Group("/active-clients")
	{
		clients.GET("", h.ActiveClient.List)
		clients.GET("/board", h.ActiveClient.Board)
		clients.GET("/:id", h.ActiveClient.Get)
		clients.GET("/:id/activity", h.ActiveClient.Activity)
		clients.POST("", admin, h.ActiveClient.Create)
		clients.PUT("/:id", admin, h.ActiveClient.Update)
		clients.PATCH("/:id/stage", admin, h.ActiveClient.SetStage)
		clients.PATCH("/:id/payment", admin, h.ActiveClient.SetPayment)
		clients.DELETE("/:id", admin, h.ActiveClient.Delete)
		clients.POST("/:id/drop", admin, h.ActiveClient.Drop)
	}

	dropped := crm.Group("/dropped-clients")
	{
		dropped.GET("", h.Dropped.List)
		dropped.GET("/:id", h.Dropped.Get)
		dropped.GET("/:id/activity", h.Dropped.Activity)
		dropped.PUT("/:id", admin, h.Dropped.Update)
		dropped.POST("/:id/recover", admin, h.Dropped.Recover)
		dropped.DELETE("/:id", admin, h.Dropped.Purge)
	}
}
