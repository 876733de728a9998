package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/orders"
)

// OrderHandler ciclo de vida de pedidos: CRUD, bloqueo, respuesta del cliente y PDF.
type OrderHandler struct {
	uc *orders.UseCase
}

// NewOrderHandler construye el handler de pedidos.
func NewOrderHandler(uc *orders.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// List godoc
// @Summary      Listar pedidos
// @Description  Paginado y filtrado por rol. Antes de listar se bloquean los pedidos vencidos.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        sortBy       query  string  false  "order_date | created_at | total_amount | order_number"
// @Param        sortOrder    query  string  false  "asc | desc"
// @Param        page         query  int     false  "Página (1..)"
// @Param        pageSize     query  int     false  "Tamaño de página (máx 100)"
// @Param        status       query  string  false  "Estado del cliente"
// @Param        customer_id  query  string  false  "Cliente (solo roles internos)"
// @Success      200  {object}  dto.Page[dto.OrderResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var in dto.OrderListRequest
	if err := c.QueryParser(&in); err != nil {
		return validation(c, "parámetros de consulta inválidos")
	}
	out, err := h.uc.List(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener pedido con sus ítems
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear pedido
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateOrderRequest  true  "customer_id, items (1..100)"
// @Success      201  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar pedido
// @Description  Los campos permitidos dependen del rol. Un pedido bloqueado solo lo edita admin/manager.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                  true  "Order ID"
// @Param        body  body  dto.UpdateOrderRequest  true  "campos a modificar"
// @Success      200  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetPrincipal(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar pedido (admin)
// @Tags         orders
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetPrincipal(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Lock godoc
// @Summary      Bloquear pedido
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/lock [post]
func (h *OrderHandler) Lock(c *fiber.Ctx) error {
	out, err := h.uc.Lock(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Unlock godoc
// @Summary      Desbloquear pedido
// @Description  Marca manually_unlocked para que el auto-bloqueo no lo vuelva a bloquear.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  dto.OrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/unlock [post]
func (h *OrderHandler) Unlock(c *fiber.Ctx) error {
	out, err := h.uc.Unlock(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Confirmar pedido (cliente)
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string              true   "Order ID"
// @Param        body  body  dto.RespondRequest  false  "comentario opcional"
// @Success      200  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	in, err := parseRespond(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Confirm(c.UserContext(), GetPrincipal(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Dispute godoc
// @Summary      Disputar pedido (cliente)
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string              true  "Order ID"
// @Param        body  body  dto.RespondRequest  true  "comentario obligatorio"
// @Success      200  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/dispute [post]
func (h *OrderHandler) Dispute(c *fiber.Ctx) error {
	in, err := parseRespond(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Dispute(c.UserContext(), GetPrincipal(c), c.Params("id"), in.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Exportar pedido a PDF
// @Tags         orders
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  string  true  "Order ID"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/pdf [get]
func (h *OrderHandler) PDF(c *fiber.Ctx) error {
	content, filename, err := h.uc.ExportPDF(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}

// parseRespond acepta cuerpo vacío (confirmar sin comentario).
func parseRespond(c *fiber.Ctx) (dto.RespondRequest, error) {
	var in dto.RespondRequest
	if len(c.Body()) == 0 {
		return in, nil
	}
	err := c.BodyParser(&in)
	return in, err
}
