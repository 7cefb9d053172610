package policy

import "strings"

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanPro     Plan = "pro"
)

const (
	TemplateFree  = "free"
	TemplateBasic = "basic"
	TemplatePro   = "pro"
)

var planRank = map[Plan]int{
	PlanFree:    0,
	PlanPremium: 1,
	PlanPro:     2,
}

var templateRank = map[string]int{
	TemplateFree:  0,
	TemplateBasic: 1,
	TemplatePro:   2,
}

// ParsePlan falls back to the free plan for unknown values.
func ParsePlan(s string) Plan {
	if p := Plan(strings.ToLower(strings.TrimSpace(s))); p.Valid() {
		return p
	}
	return PlanFree
}

func (p Plan) Valid() bool {
	_, ok := planRank[p]
	return ok
}

// TemplateFor returns the default compositing template of a plan.
func TemplateFor(p Plan) string {
	switch p {
	case PlanPro:
		return TemplatePro
	case PlanPremium:
		return TemplateBasic
	default:
		return TemplateFree
	}
}

// TemplateAllowed reports whether the plan may render with the template.
func TemplateAllowed(p Plan, template string) bool {
	rank, ok := templateRank[template]
	if !ok {
		return false
	}
	return rank <= planRank[ParsePlan(string(p))]
}

func KnownTemplate(template string) bool {
	_, ok := templateRank[template]
	return ok
}
