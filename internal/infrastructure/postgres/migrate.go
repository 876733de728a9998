package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// Migrate aplica los archivos *.up.sql (o revierte con *.down.sql) de fsys en orden de nombre.
// Las versiones aplicadas se registran en schema_migrations; cada archivo corre en su propia transacción.
// Devuelve los nombres de archivo ejecutados.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, direction string) ([]string, error) {
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("migrate: dirección inválida %q (up|down)", direction)
	}
	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("migrate: crear schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migrate: leer migraciones: %w", err)
	}
	suffix := "." + direction + ".sql"
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if direction == "down" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	var ran []string
	for _, name := range files {
		version := strings.TrimSuffix(name, suffix)
		applied, err := isApplied(ctx, pool, version)
		if err != nil {
			return ran, err
		}
		if (direction == "up") == applied {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return ran, fmt.Errorf("migrate: leer %s: %w", name, err)
		}
		if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			if direction == "up" {
				_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			} else {
				_, err = tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version)
			}
			return err
		}); err != nil {
			return ran, fmt.Errorf("migrate: %s: %w", name, err)
		}
		ran = append(ran, name)
	}
	return ran, nil
}

func isApplied(ctx context.Context, q Querier, version string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("migrate: consultar versión: %w", err)
	}
	return exists, nil
}
