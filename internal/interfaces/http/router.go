package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rebate-api/internal/application/audit"
	"github.com/jhoicas/rebate-api/internal/application/auth"
	"github.com/jhoicas/rebate-api/internal/application/contracts"
	"github.com/jhoicas/rebate-api/internal/application/orders"
	"github.com/jhoicas/rebate-api/internal/application/settings"
	"github.com/jhoicas/rebate-api/internal/application/usecase"
	"github.com/jhoicas/rebate-api/internal/application/verification"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	RoleRequestUC  *usecase.RoleRequestUseCase
	VerificationUC *verification.UseCase
	OrderUC        *orders.UseCase
	ContractUC     *contracts.UseCase
	Settings       *settings.Service
	AuditUC        *audit.UseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	verificationHandler := NewVerificationHandler(deps.VerificationUC)
	verif := api.Group("/verification")
	verif.Post("/send", verificationHandler.Send)
	verif.Post("/verify", verificationHandler.Verify)

	// Rutas protegidas (requieren Bearer Token)
	authMW := AuthMiddleware(deps.JWTSecret, deps.AuthUC)
	adminOnly := RequireRole(entity.RoleAdmin)
	internalStaff := RequireRole(entity.RoleAdmin, entity.RoleManager)

	authGroup.Get("/me", authMW, authHandler.Me)

	userHandler := NewUserHandler(deps.UserUC, deps.RoleRequestUC)
	users := api.Group("/users", authMW, adminOnly)
	users.Get("/", userHandler.List)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	roleRequests := api.Group("/role-requests", authMW)
	roleRequests.Post("/", userHandler.CreateRoleRequest)
	roleRequests.Get("/", userHandler.ListRoleRequests)
	roleRequests.Put("/:id", adminOnly, userHandler.ReviewRoleRequest)

	orderHandler := NewOrderHandler(deps.OrderUC)
	ordersGroup := api.Group("/orders", authMW)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/:id", orderHandler.Get)
	ordersGroup.Put("/:id", orderHandler.Update)
	ordersGroup.Delete("/:id", adminOnly, orderHandler.Delete)
	ordersGroup.Post("/:id/lock", internalStaff, orderHandler.Lock)
	ordersGroup.Post("/:id/unlock", internalStaff, orderHandler.Unlock)
	ordersGroup.Post("/:id/confirm", orderHandler.Confirm)
	ordersGroup.Post("/:id/dispute", orderHandler.Dispute)
	ordersGroup.Get("/:id/pdf", orderHandler.PDF)

	contractHandler := NewContractHandler(deps.ContractUC)
	contractsGroup := api.Group("/contracts", authMW)
	contractsGroup.Get("/", contractHandler.List)
	contractsGroup.Post("/", contractHandler.Create)
	contractsGroup.Get("/:id", contractHandler.Get)
	contractsGroup.Put("/:id", contractHandler.Update)
	contractsGroup.Delete("/:id", adminOnly, contractHandler.Delete)
	contractsGroup.Post("/:id/sign", contractHandler.Sign)
	contractsGroup.Post("/:id/signed-document", contractHandler.UploadSignedDocument)

	adminHandler := NewAdminHandler(deps.Settings, deps.AuditUC)
	api.Get("/settings", authMW, adminHandler.GetSettings)
	api.Put("/settings", authMW, adminOnly, adminHandler.UpdateSettings)
	api.Get("/audit-logs", authMW, adminOnly, adminHandler.ListAuditLogs)
}
