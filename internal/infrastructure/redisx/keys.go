// Package redisx caché Redis de la configuración del sistema.
package redisx

import "time"

const (
	// KeySettings fila de system_settings serializada en JSON.
	KeySettings = "rebate:settings:v1"
)

var (
	// TTLSettings vencimiento por defecto de la entrada de configuración.
	TTLSettings = 5 * time.Minute
)
