package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/usecase"
)

// UserHandler administración de usuarios y solicitudes de cambio de rol.
type UserHandler struct {
	users    *usecase.UserUseCase
	requests *usecase.RoleRequestUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(users *usecase.UserUseCase, requests *usecase.RoleRequestUseCase) *UserHandler {
	return &UserHandler{users: users, requests: requests}
}

// List godoc
// @Summary      Listar usuarios
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page      query  int  false  "Página (1..)"
// @Param        pageSize  query  int  false  "Tamaño de página (máx 100)"
// @Success      200  {object}  dto.Page[dto.UserResponse]
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return validation(c, "parámetros de paginación inválidos")
	}
	out, err := h.users.List(c.UserContext(), GetPrincipal(c), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar usuario (rol, estado, aprobador)
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "User ID"
// @Param        body  body  dto.UpdateUserRequest  true  "campos a modificar"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.users.Update(c.UserContext(), GetPrincipal(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar usuario
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), GetPrincipal(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateRoleRequest godoc
// @Summary      Solicitar cambio de rol
// @Tags         role-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateRoleRequest  true  "requested_role, reason"
// @Success      201  {object}  dto.RoleRequestResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/role-requests [post]
func (h *UserHandler) CreateRoleRequest(c *fiber.Ctx) error {
	var in dto.CreateRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.requests.Create(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListRoleRequests godoc
// @Summary      Listar solicitudes de rol (admin: todas; resto: propias)
// @Tags         role-requests
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "pending | approved | rejected"
// @Param        page      query  int     false  "Página"
// @Param        pageSize  query  int     false  "Tamaño de página"
// @Success      200  {object}  dto.Page[dto.RoleRequestResponse]
// @Router       /api/role-requests [get]
func (h *UserHandler) ListRoleRequests(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return validation(c, "parámetros de paginación inválidos")
	}
	out, err := h.requests.List(c.UserContext(), GetPrincipal(c), c.Query("status"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReviewRoleRequest godoc
// @Summary      Aprobar o rechazar solicitud de rol
// @Tags         role-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "Role request ID"
// @Param        body  body  dto.ReviewRoleRequest  true  "status: approved | rejected"
// @Success      200  {object}  dto.RoleRequestResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/role-requests/{id} [put]
func (h *UserHandler) ReviewRoleRequest(c *fiber.Ctx) error {
	var in dto.ReviewRoleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.requests.Review(c.UserContext(), GetPrincipal(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
