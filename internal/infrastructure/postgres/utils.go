package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// nullIfEmpty convierte "" en NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// derefOrNil para columnas UUID opcionales.
func derefOrNil(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
