package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/subkit/subkit/internal/api/dto"
	"github.com/subkit/subkit/internal/domain/catalog"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/service"
)

type PackageHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewPackageHandler(service service.CatalogService, log *logger.Logger) *PackageHandler {
	return &PackageHandler{service: service, log: log}
}

func (h *PackageHandler) CreatePackage(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	pkg, err := h.service.CreatePackage(ctx, req)
	if err != nil {
		h.log.Error("Failed to create package", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.PackageResponse{Package: pkg})
}

func (h *PackageHandler) GetPackage(c *gin.Context) {
	ctx := c.Request.Context()
	pkg, err := h.service.GetPackage(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to get package", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.PackageResponse{Package: pkg})
}

func (h *PackageHandler) ListPackages(c *gin.Context) {
	ctx := c.Request.Context()
	packages, err := h.service.ListPackages(ctx)
	if err != nil {
		h.log.Error("Failed to list packages", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ListPackagesResponse{
		Items: lo.Map(packages, func(pkg *catalog.Package, _ int) *dto.PackageResponse {
			return &dto.PackageResponse{Package: pkg}
		}),
		Total: len(packages),
	})
}

func (h *PackageHandler) DeactivatePackage(c *gin.Context) {
	ctx := c.Request.Context()
	pkg, err := h.service.DeactivatePackage(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to deactivate package", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.PackageResponse{Package: pkg})
}
