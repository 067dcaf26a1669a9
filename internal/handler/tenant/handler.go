package tenant

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/optica/backend/internal/handler"
	"github.com/optica/backend/internal/model"
	"github.com/optica/backend/internal/service/tenantadmin"
)

type Handler struct {
	service *tenantadmin.Service
}

func NewHandler(service *tenantadmin.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tenants := r.Group("/tenants")
	{
		tenants.POST("", h.CreateTenant)
		tenants.GET("", h.ListTenants)
		tenants.GET("/:schema", h.GetTenant)
	}
}

func (h *Handler) CreateTenant(c *gin.Context) {
	var req model.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := model.PrincipalFromContext(c.Request.Context())
	created, err := h.service.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ListTenants(c *gin.Context) {
	actor := model.PrincipalFromContext(c.Request.Context())
	tenants, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tenants))
}

func (h *Handler) GetTenant(c *gin.Context) {
	actor := model.PrincipalFromContext(c.Request.Context())
	found, err := h.service.Get(c.Request.Context(), actor, c.Param("schema"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}
