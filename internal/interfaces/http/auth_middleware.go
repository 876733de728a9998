package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/access"
	"github.com/jhoicas/rebate-api/pkg/jwt"
)

// LocalPrincipal clave de c.Locals con el access.Principal del request.
const LocalPrincipal = "principal"

// PrincipalResolver recarga el usuario del token (lo implementa *auth.AuthUseCase).
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (access.Principal, error)
}

// AuthMiddleware valida el Bearer Token JWT y vuelve a cargar el usuario desde la DB.
// Usuarios inexistentes o inactivos responden 401 aunque el token siga vigente.
func AuthMiddleware(jwtSecret string, resolver PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeMissingToken, Error: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeInvalidToken, Error: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeMissingToken, Error: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeInvalidToken, Error: "token inválido o expirado"})
		}

		p, err := resolver.ResolvePrincipal(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeUnauthorized, Error: "usuario inexistente o inactivo"})
			}
			return writeError(c, err)
		}
		p.IP = c.IP()
		c.Locals(LocalPrincipal, p)
		return c.Next()
	}
}

// RequireRole permite el paso solo a los roles indicados. Va después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := principalFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: CodeUnauthorized, Error: "no autenticado"})
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: CodeForbidden, Error: domain.ErrForbidden.Error()})
	}
}

// GetPrincipal devuelve el principal del request (vacío si no pasó por AuthMiddleware).
func GetPrincipal(c *fiber.Ctx) access.Principal {
	p, _ := principalFrom(c)
	return p
}

// GetUserID devuelve el UserID del principal.
func GetUserID(c *fiber.Ctx) string {
	return GetPrincipal(c).UserID
}

// GetRole devuelve el rol vigente del principal.
func GetRole(c *fiber.Ctx) string {
	return GetPrincipal(c).Role
}

func principalFrom(c *fiber.Ctx) (access.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(access.Principal)
	return p, ok
}
