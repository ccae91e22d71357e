package domain

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Unit is a canonical measurement unit. Every free-text unit token in the
// system normalizes to exactly one of these six tags.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "L"
	UnitMilliliter Unit = "mL"
	UnitUnit       Unit = "un"
	UnitDozen      Unit = "duzia"
)

// UnitFamily groups units that are convertible into one another.
type UnitFamily string

const (
	FamilyMass   UnitFamily = "mass"
	FamilyVolume UnitFamily = "volume"
	FamilyUnit   UnitFamily = "unit"
	FamilyDozen  UnitFamily = "dozen"
)

// logger is used for unit-normalization warnings. Nop by default so the
// domain package stays dependency-free for callers that don't care.
var logger = zap.NewNop()

// SetLogger installs the application logger for domain-level diagnostics.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// unitSynonyms maps every recognized unit token (lowercased, trimmed) to its
// canonical tag. Vocabulary covers pt-BR invoice/speech variants plus common
// abbreviations, taken from real extractor output.
var unitSynonyms = map[string]Unit{
	// kilogram
	"kg": UnitKilogram, "quilo": UnitKilogram, "quilos": UnitKilogram,
	"quilograma": UnitKilogram, "quilogramas": UnitKilogram,
	"kilo": UnitKilogram, "kilos": UnitKilogram,
	"kilograma": UnitKilogram, "kilogramas": UnitKilogram,

	// gram
	"g": UnitGram, "grama": UnitGram, "gramas": UnitGram,
	"gr": UnitGram, "gram": UnitGram,

	// liter
	"l": UnitLiter, "litro": UnitLiter, "litros": UnitLiter,
	"lit": UnitLiter, "lts": UnitLiter,

	// milliliter
	"ml": UnitMilliliter, "mililitro": UnitMilliliter, "mililitros": UnitMilliliter,
	"mililitre": UnitMilliliter, "mililitres": UnitMilliliter,

	// count unit
	"un": UnitUnit, "unidade": UnitUnit, "unidades": UnitUnit,
	"pacote": UnitUnit, "pacotes": UnitUnit,
	"caixa": UnitUnit, "caixas": UnitUnit,
	"pct": UnitUnit, "pcts": UnitUnit,
	"cx": UnitUnit, "cxs": UnitUnit,
	"und": UnitUnit, "unds": UnitUnit,

	// dozen
	"duzia": UnitDozen, "dúzia": UnitDozen,
	"duzias": UnitDozen, "dúzias": UnitDozen,
	"dz": UnitDozen, "dza": UnitDozen,
	"dozen": UnitDozen, "dozens": UnitDozen,
}

// NormalizeUnit maps a free-text unit token to its canonical Unit. Total
// function: unrecognized tokens fall back to the count unit with a logged
// warning instead of failing, so a single odd token from an upstream
// extractor never aborts a whole batch.
func NormalizeUnit(token string) Unit {
	normalized := strings.ToLower(strings.TrimSpace(token))

	if unit, ok := unitSynonyms[normalized]; ok {
		return unit
	}

	logger.Warn("unknown unit token, defaulting to un",
		zap.String("token", token))
	return UnitUnit
}

// Family returns the conversion family of u. Count units and dozens are each
// their own singleton family: "un" and "duzia" are not convertible into each
// other.
func (u Unit) Family() UnitFamily {
	switch u {
	case UnitKilogram, UnitGram:
		return FamilyMass
	case UnitLiter, UnitMilliliter:
		return FamilyVolume
	case UnitDozen:
		return FamilyDozen
	default:
		return FamilyUnit
	}
}

// CompatibleUnits returns the set of units a quantity in u can be converted
// to, always including u itself.
func CompatibleUnits(u Unit) []Unit {
	switch u.Family() {
	case FamilyMass:
		return []Unit{UnitKilogram, UnitGram}
	case FamilyVolume:
		return []Unit{UnitLiter, UnitMilliliter}
	default:
		return []Unit{u}
	}
}

// Compatible reports whether a quantity in u can be converted into target.
func (u Unit) Compatible(target Unit) bool {
	return u.Family() == target.Family()
}

// ConvertUnit converts value from one unit to another. Identity and
// cross-family conversions return value unchanged; callers must check
// compatibility via CompatibleUnits before trusting the result. Mass and
// volume use the fixed x1000 linear rules (kg->g, L->mL). No rounding is
// applied here.
func ConvertUnit(value float64, from, to Unit) float64 {
	if from == to {
		return value
	}

	switch {
	case from == UnitKilogram && to == UnitGram:
		return value * 1000
	case from == UnitGram && to == UnitKilogram:
		return value / 1000
	case from == UnitLiter && to == UnitMilliliter:
		return value * 1000
	case from == UnitMilliliter && to == UnitLiter:
		return value / 1000
	}

	return value
}

// FormatNumber renders a quantity for display. Non-finite values become "0",
// integral values print without a decimal point, and fractional values are
// rounded to 6 decimal places with trailing zeros stripped.
func FormatNumber(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}

	if value == math.Trunc(value) {
		return strconv.FormatFloat(value, 'f', 0, 64)
	}

	rounded := math.Round(value*1e6) / 1e6
	formatted := strconv.FormatFloat(rounded, 'f', -1, 64)

	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimSuffix(formatted, ".")
	}

	return formatted
}
