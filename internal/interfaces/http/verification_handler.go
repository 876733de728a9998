package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/application/verification"
)

// VerificationHandler envío y verificación de códigos (público).
type VerificationHandler struct {
	uc *verification.UseCase
}

func NewVerificationHandler(uc *verification.UseCase) *VerificationHandler {
	return &VerificationHandler{uc: uc}
}

// Send godoc
// @Summary      Enviar código de verificación
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SendCodeRequest  true  "destination, purpose"
// @Success      200  {object}  dto.VerificationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/verification/send [post]
func (h *VerificationHandler) Send(c *fiber.Ctx) error {
	var in dto.SendCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Send(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Verify godoc
// @Summary      Verificar código
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        body  body  dto.VerifyCodeRequest  true  "destination, code, purpose"
// @Success      200  {object}  dto.VerificationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/verification/verify [post]
func (h *VerificationHandler) Verify(c *fiber.Ctx) error {
	var in dto.VerifyCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Verify(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
