package sanitize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/rebate-api/pkg/sanitize"
)

func TestText_EscapaHTMLYControl(t *testing.T) {
	got := sanitize.Text("  <b>precio</b> incorrecto\x00\x07 ", 0)
	assert.Equal(t, "&lt;b&gt;precio&lt;/b&gt; incorrecto", got)
}

func TestText_ConservaSaltosDeLinea(t *testing.T) {
	assert.Equal(t, "línea 1\nlínea 2", sanitize.Text("línea 1\nlínea 2", 0))
}

func TestText_NormalizaNFC(t *testing.T) {
	// "e" + acento combinante -> "é" precompuesto
	assert.Equal(t, "café", sanitize.Text("café", 0))
}

func TestText_Trunca(t *testing.T) {
	assert.Equal(t, "abc", sanitize.Text("abcdef", 3))
}

func TestIsBlank(t *testing.T) {
	assert.True(t, sanitize.IsBlank("   \x00  "))
	assert.False(t, sanitize.IsBlank(" x "))
}
