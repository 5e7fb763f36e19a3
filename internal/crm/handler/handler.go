package handler

import (
	"errors"

	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/service"
	"github.com/bitfantasy/nimo-crm/internal/metrics"
	"github.com/bitfantasy/nimo-crm/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the CRM HTTP handlers.
type Handlers struct {
	Stage        *StageHandler
	Lead         *LeadHandler
	ActiveClient *ActiveClientHandler
	Dropped      *DroppedClientHandler
	SSE          *SSEHandler
}

func NewHandlers(services *service.Services, hub *events.Hub, m *metrics.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Stage:        &StageHandler{},
		Lead:         &LeadHandler{svc: services.Lead, lifecycle: services.Lifecycle, export: services.Export, logger: logger},
		ActiveClient: &ActiveClientHandler{svc: services.ActiveClient, lifecycle: services.Lifecycle, logger: logger},
		Dropped:      &DroppedClientHandler{svc: services.Dropped, lifecycle: services.Lifecycle, logger: logger},
		SSE:          NewSSEHandler(hub, m),
	}
}

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps unpaginated lists.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error derives the HTTP status from the first three digits of code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

func GetUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// handleError maps service errors onto the response code scheme.
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidStage),
		errors.Is(err, service.ErrInvalidMilestone),
		errors.Is(err, service.ErrDropNotConfirmed),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrInvalidDroppedType):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotClosed),
		errors.Is(err, service.ErrAlreadyConverted),
		errors.Is(err, service.ErrHasActiveClient),
		errors.Is(err, service.ErrInvalidSnapshot):
		Conflict(c, err.Error())
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.Error(err))
		_ = c.Error(err)
		InternalError(c, "internal server error")
	}
}
