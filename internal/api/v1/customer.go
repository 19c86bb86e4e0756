package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subkit/subkit/internal/api/dto"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/service"
)

type CustomerHandler struct {
	service service.CustomerService
	log     *logger.Logger
}

func NewCustomerHandler(service service.CustomerService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{service: service, log: log}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	cust, err := h.service.CreateCustomer(ctx, req)
	if err != nil {
		h.log.Error("Failed to create customer", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.CustomerResponse{Customer: cust})
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	cust, err := h.service.GetCustomer(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to get customer", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.CustomerResponse{Customer: cust})
}

// GetCustomerByExternalID looks a customer up by the id the host
// application knows them by
func (h *CustomerHandler) GetCustomerByExternalID(c *gin.Context) {
	ctx := c.Request.Context()
	cust, err := h.service.GetCustomerByExternalID(ctx, c.Param("external_id"))
	if err != nil {
		h.log.Error("Failed to get customer by external id", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.CustomerResponse{Customer: cust})
}

func (h *CustomerHandler) CreateSource(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.CustomerID = c.Param("id")

	src, err := h.service.CreateSource(ctx, req)
	if err != nil {
		h.log.Error("Failed to create source", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.SourceResponse{Source: src})
}

func (h *CustomerHandler) ListSources(c *gin.Context) {
	ctx := c.Request.Context()
	sources, err := h.service.ListSources(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to list sources", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sources, "total": len(sources)})
}
