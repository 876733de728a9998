// Package sanitize limpia texto libre enviado por clientes (comentarios, nombres)
// antes de persistirlo.
package sanitize

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text normaliza a NFC, elimina caracteres de control (salvo salto de línea y tabulador),
// recorta espacios, escapa HTML y limita el resultado a maxRunes (0 = sin límite).
func Text(s string, maxRunes int) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if maxRunes > 0 {
		if runes := []rune(s); len(runes) > maxRunes {
			s = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return html.EscapeString(s)
}

// IsBlank informa si s queda vacío después de sanitizar.
func IsBlank(s string) bool {
	return Text(s, 0) == ""
}
