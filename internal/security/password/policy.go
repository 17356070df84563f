package password

import "unicode"

// Strength clasifica la fortaleza de una contraseña para el medidor de UI.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy es la política aplicada en registro y cambio de contraseña.
var DefaultPolicy = Policy{
	MinLength:     8,
	RequireUpper:  true,
	RequireLower:  true,
	RequireDigit:  true,
	RequireSymbol: false,
}

// Validate es determinística: mismo input, mismo output.
func (p Policy) Validate(s string) (ok bool, reasons []string, strength Strength) {
	runes := []rune(s)
	if len(runes) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}

	classes := 0
	for _, b := range []bool{hasU, hasL, hasD, hasS} {
		if b {
			classes++
		}
	}
	switch {
	case len(runes) >= 12 && classes >= 3:
		strength = StrengthStrong
	case len(runes) >= p.MinLength && classes >= 2:
		strength = StrengthMedium
	default:
		strength = StrengthWeak
	}

	return len(reasons) == 0, reasons, strength
}
