// migrate aplica o revierte el esquema y crea el primer administrador.
//
// Uso:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
//	go run ./cmd/migrate seed-admin <email> <password>
//
// Lee .env del directorio actual si existe.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/rebate-api/internal/domain"
	"github.com/jhoicas/rebate-api/internal/domain/entity"
	"github.com/jhoicas/rebate-api/internal/infrastructure/postgres"
	"github.com/jhoicas/rebate-api/migrations"
	"github.com/jhoicas/rebate-api/pkg/config"
	"github.com/jhoicas/rebate-api/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "leer .env: %v\n", err)
	}
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: migrate up|down|seed-admin <email> <password>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	switch cmd := os.Args[1]; cmd {
	case "up", "down":
		applied, err := postgres.Migrate(ctx, pool, migrations.FS, cmd)
		if err != nil {
			log.Fatal().Err(err).Msg("migración fallida")
		}
		if len(applied) == 0 {
			log.Info().Str("direction", cmd).Msg("sin cambios")
			return
		}
		log.Info().Str("direction", cmd).Strs("files", applied).Msg("migraciones aplicadas")
	case "seed-admin":
		if len(os.Args) < 4 {
			log.Fatal().Msg("uso: migrate seed-admin <email> <password>")
		}
		if err := seedAdmin(ctx, postgres.NewUserRepository(pool), os.Args[2], os.Args[3]); err != nil {
			log.Fatal().Err(err).Msg("crear administrador")
		}
		log.Info().Str("email", os.Args[2]).Msg("administrador creado")
	default:
		log.Fatal().Str("command", cmd).Msg("comando desconocido")
	}
}

func seedAdmin(ctx context.Context, users *postgres.UserRepo, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return fmt.Errorf("%w: email requerido y password de al menos 8 caracteres", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now()
	return users.Create(ctx, &entity.User{
		ID:                  uuid.New().String(),
		Email:               email,
		PasswordHash:        string(hash),
		Name:                "Administrador",
		Role:                entity.RoleAdmin,
		IsActive:            true,
		CanApproveContracts: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
}
