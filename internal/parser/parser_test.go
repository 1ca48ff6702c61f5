package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vuela/internal/parser"
)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"dashes", "CDMX a Cancún el 25-12-2025", "2025-12-25", true},
		{"slashes", "MTY-GDL 3/7/2026 por la mañana", "2026-07-03", true},
		{"date only", "01-01-2026", "2026-01-01", true},
		{"no date", "CDMX a Cancún la próxima semana", "", false},
		{"impossible date", "vuelo el 45-13-2025", "", false},
		{"two digit year ignored", "vuelo el 25-12-25", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ExtractDate(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTotal(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"plain", "vuelo CDMX-Cancún $5000", "5000", true},
		{"with space", "total $ 1200", "1200", true},
		{"decimals", "cuesta $499.99 por persona", "499.99", true},
		{"thousand separators", "paquete $12,500.50 ida y vuelta", "12500.5", true},
		{"first of several", "antes $800 ahora $600", "800", true},
		{"no marker", "vuelo de 5000 pesos", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ExtractTotal(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestResolveAmount_Literal(t *testing.T) {
	amount, err := parser.ResolveAmount("1000", "CDMX a Cancún")
	assert.NoError(t, err)
	assert.Equal(t, "1000", amount)

	amount, err = parser.ResolveAmount("  750.50 ", "cualquier texto")
	assert.NoError(t, err)
	assert.Equal(t, "750.50", amount)
}

func TestResolveAmount_Percentage(t *testing.T) {
	// Half of the $5000 embedded in the description, two decimals.
	amount, err := parser.ResolveAmount("50%", "vuelo CDMX-Cancún $5000")
	assert.NoError(t, err)
	assert.Equal(t, "2500.00", amount)

	amount, err = parser.ResolveAmount("33%", "promo $99.99")
	assert.NoError(t, err)
	assert.Equal(t, "33.00", amount)
}

func TestResolveAmount_PercentageWithoutTotal(t *testing.T) {
	_, err := parser.ResolveAmount("50%", "vuelo CDMX-Cancún sin precio")
	assert.ErrorIs(t, err, parser.ErrNoTotal)
}

func TestResolveAmount_Invalid(t *testing.T) {
	for _, spec := range []string{"", "abc", "50%%", "-100", "1,000"} {
		_, err := parser.ResolveAmount(spec, "vuelo $5000")
		assert.Error(t, err, "spec %q should be rejected", spec)
	}
}
