package medication

import "strings"

// formRule pairs a predicate over (name, unit) with the form it implies.
// Rules are evaluated top to bottom; the first match wins.
type formRule struct {
	match func(name, unit string) bool
	form  Form
}

func nameContains(keyword string) func(name, unit string) bool {
	return func(name, _ string) bool {
		return strings.Contains(strings.ToLower(name), keyword)
	}
}

func unitIs(u string) func(name, unit string) bool {
	return func(_, unit string) bool {
		return strings.EqualFold(unit, u)
	}
}

func anyOf(preds ...func(name, unit string) bool) func(name, unit string) bool {
	return func(name, unit string) bool {
		for _, p := range preds {
			if p(name, unit) {
				return true
			}
		}
		return false
	}
}

var formRules = []formRule{
	{anyOf(unitIs("ml"), nameContains("syrup")), FormLiquid},
	{nameContains("inhaler"), FormInhaler},
	{anyOf(nameContains("injection"), unitIs("IU")), FormInjection},
	{nameContains("cream"), FormCream},
}

// ClassifyForm infers a dosage form from a medication's brand name and
// dose unit. Unmatched inputs default to tablet.
func ClassifyForm(name, unit string) Form {
	for _, rule := range formRules {
		if rule.match(name, unit) {
			return rule.form
		}
	}
	return FormTablet
}
