package rebate

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Scale decimales que admiten los montos y porcentajes persistidos (NUMERIC(_,2)).
const Scale = 2

// WithinScale informa si d no tiene más de Scale decimales significativos.
func WithinScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(Scale))
}

// Calculate devuelve el monto de rebate: total * porcentaje / 100, redondeado a 2 decimales.
func Calculate(total, percentage decimal.Decimal) decimal.Decimal {
	return total.Mul(percentage).Div(hundred).Round(2)
}

// LineTotal total de una línea: cantidad * precio unitario.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Line par cantidad/precio para SumLines.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// SumLines suma los totales de línea.
func SumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	return total
}

// ValidPercentage informa si p está en [0, 100] con a lo sumo 2 decimales.
func ValidPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred) && WithinScale(p)
}
