package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/settings"
)

// AdminHandler configuración del sistema y log de auditoría.
type AdminHandler struct {
	settings *settings.Service
	audit    *audit.UseCase
}

func NewAdminHandler(s *settings.Service, a *audit.UseCase) *AdminHandler {
	return &AdminHandler{settings: s, audit: a}
}

// GetSettings godoc
// @Summary      Configuración vigente
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SettingsResponse
// @Router       /api/settings [get]
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	out, err := h.settings.Get(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateSettings godoc
// @Summary      Editar configuración (admin)
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.UpdateSettingsRequest  true  "auto_lock_days, default_rebate_percentage"
// @Success      200  {object}  dto.SettingsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/settings [put]
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var in dto.UpdateSettingsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.settings.Update(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListAuditLogs godoc
// @Summary      Log de auditoría (admin)
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query  string  false  "order | contract | user | settings"
// @Param        entity_id    query  string  false  "ID de la entidad"
// @Param        page         query  int     false  "Página"
// @Param        pageSize     query  int     false  "Tamaño de página"
// @Success      200  {object}  dto.Page[dto.AuditLogResponse]
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	var in dto.AuditListRequest
	if err := c.QueryParser(&in); err != nil {
		return validation(c, "parámetros de consulta inválidos")
	}
	out, err := h.audit.List(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
