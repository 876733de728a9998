package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/contracts"
	"github.com/jhoicas/rebate-api/internal/application/dto"
)

// ContractHandler contratos de rebate: alta, aprobación, firma y documento firmado.
type ContractHandler struct {
	uc *contracts.UseCase
}

// NewContractHandler construye el handler de contratos.
func NewContractHandler(uc *contracts.UseCase) *ContractHandler {
	return &ContractHandler{uc: uc}
}

// List godoc
// @Summary      Listar contratos
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        status       query  string  false  "Estado"
// @Param        customer_id  query  string  false  "Cliente"
// @Param        page         query  int     false  "Página"
// @Param        pageSize     query  int     false  "Tamaño de página"
// @Success      200  {object}  dto.Page[dto.ContractResponse]
// @Router       /api/contracts [get]
func (h *ContractHandler) List(c *fiber.Ctx) error {
	var in dto.ContractListRequest
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
// @Summary      Obtener contrato
// @Tags         contracts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Contract ID"
// @Success      200  {object}  dto.ContractResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id} [get]
func (h *ContractHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear contrato
// @Description  Un cliente tiene a lo sumo un contrato vigente (no rechazado ni vencido).
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateContractRequest  true  "customer_id, fechas, porcentaje"
// @Success      201  {object}  dto.ContractResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/contracts [post]
func (h *ContractHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateContractRequest
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
// @Summary      Editar o aprobar contrato
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "Contract ID"
// @Param        body  body  dto.UpdateContractRequest  true  "campos a modificar"
// @Success      200  {object}  dto.ContractResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id} [put]
func (h *ContractHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateContractRequest
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
// @Summary      Eliminar contrato (admin)
// @Tags         contracts
// @Security     BearerAuth
// @Param        id  path  string  true  "Contract ID"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id} [delete]
func (h *ContractHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetPrincipal(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sign godoc
// @Summary      Firmar contrato (cliente)
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                   true  "Contract ID"
// @Param        body  body  dto.SignContractRequest  true  "firma en data URL"
// @Success      200  {object}  dto.ContractResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id}/sign [post]
func (h *ContractHandler) Sign(c *fiber.Ctx) error {
	var in dto.SignContractRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Sign(c.UserContext(), GetPrincipal(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UploadSignedDocument godoc
// @Summary      Subir contrato firmado (PDF)
// @Tags         contracts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Contract ID"
// @Param        file  formData  file    true  "PDF firmado"
// @Success      200  {object}  dto.ContractResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id}/signed-document [post]
func (h *ContractHandler) UploadSignedDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return validation(c, "el campo file es requerido")
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	out, err := h.uc.UploadSignedDocument(c.UserContext(), GetPrincipal(c), c.Params("id"), fh.Header.Get(fiber.HeaderContentType), fh.Size, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
