// Package migrations esquema SQL embebido en el binario; lo aplican cmd/migrate y los tests de integración.
package migrations

import "embed"

// FS archivos NNNNNN_nombre.{up,down}.sql.
//
//go:embed *.sql
var FS embed.FS
