package medication

import "testing"

func TestClassifyForm(t *testing.T) {
	tests := []struct {
		name string
		unit string
		want Form
	}{
		{"Salbutamol Inhaler", "puffs", FormInhaler},
		{"Cough Syrup", "ml", FormLiquid},
		{"Paracetamol", "mg", FormTablet},
		{"Amoxicillin Suspension", "ml", FormLiquid},
		{"Insulin Injection", "units", FormInjection},
		{"Insulin Glargine", "IU", FormInjection},
		{"Hydrocortisone Cream", "g", FormCream},
		{"CROCIN SYRUP", "mg", FormLiquid},
		{"", "", FormTablet},
		{"Atorvastatin", "ML", FormLiquid},
	}
	for _, tt := range tests {
		if got := ClassifyForm(tt.name, tt.unit); got != tt.want {
			t.Errorf("ClassifyForm(%q, %q) = %s, want %s", tt.name, tt.unit, got, tt.want)
		}
	}
}

func TestClassifyFormRuleOrder(t *testing.T) {
	// Liquid outranks inhaler when both could match.
	if got := ClassifyForm("Ventolin Inhaler Syrup", "ml"); got != FormLiquid {
		t.Errorf("expected liquid for syrup+ml ahead of inhaler rule, got %s", got)
	}
}
