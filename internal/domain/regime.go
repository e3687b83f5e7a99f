package domain

// Unknown marks a regime reading that was absent from the observation batch.
const Unknown = "unknown"

// Regime is replaced wholesale every cycle. A reading missing from the batch
// becomes Unknown; it is never carried over from the prior snapshot.
type Regime struct {
	RiskAppetite       string `json:"risk_appetite" yaml:"risk_appetite"`
	TrendDirection     string `json:"trend_direction" yaml:"trend_direction"`
	DominanceDirection string `json:"dominance_direction" yaml:"dominance_direction"`
	VolatilityLevel    string `json:"volatility_level" yaml:"volatility_level"`
	MacroBackdrop      string `json:"macro_backdrop" yaml:"macro_backdrop"`
}

// UnknownRegime is the regime of the empty state.
func UnknownRegime() Regime {
	return Regime{
		RiskAppetite:       Unknown,
		TrendDirection:     Unknown,
		DominanceDirection: Unknown,
		VolatilityLevel:    Unknown,
		MacroBackdrop:      Unknown,
	}
}

// Fields returns the readings keyed by their document name.
func (r Regime) Fields() map[string]string {
	return map[string]string{
		"risk_appetite":       r.RiskAppetite,
		"trend_direction":     r.TrendDirection,
		"dominance_direction": r.DominanceDirection,
		"volatility_level":    r.VolatilityLevel,
		"macro_backdrop":      r.MacroBackdrop,
	}
}

// RegimeReadings is the inbound form. Nil means the collaborator had no reading.
type RegimeReadings struct {
	RiskAppetite       *string `json:"risk_appetite,omitempty"`
	TrendDirection     *string `json:"trend_direction,omitempty"`
	DominanceDirection *string `json:"dominance_direction,omitempty"`
	VolatilityLevel    *string `json:"volatility_level,omitempty"`
	MacroBackdrop      *string `json:"macro_backdrop,omitempty"`
}

// Resolve builds the next regime and lists the readings that were missing.
func (r RegimeReadings) Resolve() (Regime, []string) {
	var missing []string
	pick := func(name string, v *string) string {
		if v == nil || *v == "" {
			missing = append(missing, name)
			return Unknown
		}
		return *v
	}
	next := Regime{
		RiskAppetite:       pick("risk_appetite", r.RiskAppetite),
		TrendDirection:     pick("trend_direction", r.TrendDirection),
		DominanceDirection: pick("dominance_direction", r.DominanceDirection),
		VolatilityLevel:    pick("volatility_level", r.VolatilityLevel),
		MacroBackdrop:      pick("macro_backdrop", r.MacroBackdrop),
	}
	return next, missing
}
