package domain

import "testing"

func TestConfidenceSteps(t *testing.T) {
	tests := []struct {
		name  string
		in    Confidence
		raise Confidence
		lower Confidence
	}{
		{"low", ConfidenceLow, ConfidenceMedium, ConfidenceLow},
		{"medium", ConfidenceMedium, ConfidenceHigh, ConfidenceLow},
		{"high saturates", ConfidenceHigh, ConfidenceHigh, ConfidenceMedium},
		{"unknown starts low", Confidence(""), ConfidenceLow, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Raise(); got != tt.raise {
				t.Errorf("Raise(%q) = %q, want %q", tt.in, got, tt.raise)
			}
			if got := tt.in.Lower(); got != tt.lower {
				t.Errorf("Lower(%q) = %q, want %q", tt.in, got, tt.lower)
			}
		})
	}
}

func TestConfidenceRaiseNeverSkips(t *testing.T) {
	for _, c := range []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh} {
		if step := c.Raise().Rank() - c.Rank(); step > 1 {
			t.Errorf("Raise(%q) moved %d steps", c, step)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	all := []HypothesisStatus{StatusForming, StatusActive, StatusInvalidated, StatusRetired}
	allowed := map[HypothesisStatus][]HypothesisStatus{
		StatusForming: {StatusActive, StatusInvalidated},
		StatusActive:  {StatusInvalidated, StatusRetired},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !StatusInvalidated.Terminal() || !StatusRetired.Terminal() {
		t.Fatal("INVALIDATED and RETIRED must be terminal")
	}
	if StatusForming.Terminal() || StatusActive.Terminal() {
		t.Fatal("FORMING and ACTIVE must not be terminal")
	}
}

func TestNormalizeStatement(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTC dominance falling", "btc dominance falling"},
		{"  BTC   Dominance,  falling! ", "btc dominance falling"},
		{"SOL +12% by Friday", "sol +12% by friday"},
	}
	for _, tt := range tests {
		if got := NormalizeStatement(tt.in); got != tt.want {
			t.Errorf("NormalizeStatement(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHypothesisIDStableAcrossCycles(t *testing.T) {
	a := HypothesisID(NormalizeStatement("BTC dominance falling"), 1)
	b := HypothesisID(NormalizeStatement("btc dominance  FALLING."), 1)
	if a != b {
		t.Fatalf("expected identical ids for equivalent statements, got %s and %s", a, b)
	}
	if a == HypothesisID(NormalizeStatement("BTC dominance falling"), 2) {
		t.Fatal("a new generation must have a new id")
	}
}

func TestSupportedAfterCreation(t *testing.T) {
	h := &Hypothesis{CreatedCycle: 4, SupportingEvidence: []ObservationRef{{Cycle: 4, Source: "proposal"}}}
	if h.SupportedAfterCreation() {
		t.Fatal("evidence from the creating cycle must not count")
	}
	h.SupportingEvidence = append(h.SupportingEvidence, ObservationRef{Cycle: 5, Source: "verdict"})
	if !h.SupportedAfterCreation() {
		t.Fatal("expected evidence from a later cycle to count")
	}
}

func TestConditionGeneralization(t *testing.T) {
	specific := NewCondition("subject:btc_dominance", "signal:price")
	general := NewCondition("signal:price")

	if !general.StrictlyGeneralizes(specific) {
		t.Error("expected general condition to strictly generalize the specific one")
	}
	if specific.StrictlyGeneralizes(general) {
		t.Error("a more specific condition cannot generalize")
	}
	if specific.StrictlyGeneralizes(NewCondition("signal:price", "subject:btc_dominance")) {
		t.Error("equal conditions do not strictly generalize")
	}
	if !general.Covers(specific) {
		t.Error("expected general to cover specific")
	}
}

func TestRegimeResolveMarksMissing(t *testing.T) {
	risk := "RISK-ON"
	r, missing := RegimeReadings{RiskAppetite: &risk}.Resolve()
	if r.RiskAppetite != "RISK-ON" {
		t.Errorf("RiskAppetite = %q", r.RiskAppetite)
	}
	if r.TrendDirection != Unknown || r.MacroBackdrop != Unknown {
		t.Error("absent readings must resolve to unknown")
	}
	if len(missing) != 4 {
		t.Errorf("expected 4 missing readings, got %v", missing)
	}
}
