package providers

import (
	"context"
	"time"

	"github.com/procura/smartfill/internal/model"
)

// OrgProfile carries the organizational facts the contextual rules consult.
type OrgProfile struct {
	Department       string
	CostCenter       string
	DeliveryLocation string
	Approver         string
	BudgetCode       string
}

// ContextualRulesSource proposes values from organizational defaults and
// fiscal-calendar rules: year-end pressure raises priority and pulls required
// dates inside the fiscal year.
type ContextualRulesSource struct {
	profile OrgProfile
	now     func() time.Time
}

// NewContextualRulesSource creates the contextual rules source for an
// organization.
func NewContextualRulesSource(profile OrgProfile) *ContextualRulesSource {
	return &ContextualRulesSource{
		profile: profile,
		now:     time.Now,
	}
}

// Name identifies the source in logs.
func (s *ContextualRulesSource) Name() string {
	return "contextual-rules"
}

// GetDefault applies the organization's rules for the field.
func (s *ContextualRulesSource) GetDefault(_ context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	switch field {
	case model.FieldDepartment:
		return contextual(model.SelectionValue(s.profile.Department), 0.8, s.profile.Department != ""), nil

	case model.FieldCostCenter:
		return contextual(model.TextValue(s.profile.CostCenter), 0.78, s.profile.CostCenter != ""), nil

	case model.FieldDeliveryLocation:
		return contextual(model.TextValue(s.profile.DeliveryLocation), 0.75, s.profile.DeliveryLocation != ""), nil

	case model.FieldApprover:
		return contextual(model.TextValue(s.profile.Approver), 0.72, s.profile.Approver != ""), nil

	case model.FieldBudgetCode:
		return contextual(model.TextValue(s.profile.BudgetCode), 0.7, s.profile.BudgetCode != ""), nil

	case model.FieldPriority:
		// Year-end money must move before it lapses.
		if sdc.EndOfFiscalYear {
			return contextual(model.SelectionValue("high"), 0.85, true), nil
		}
		return nil, nil

	case model.FieldRequiredDate:
		if sdc.EndOfFiscalYear && sdc.DaysToFiscalYearEnd > 0 {
			deadline := s.now().AddDate(0, 0, sdc.DaysToFiscalYearEnd)
			return contextual(model.DateValue(truncateToDay(deadline)), 0.8, true), nil
		}
		return nil, nil
	}

	return nil, nil
}

func contextual(value model.ResponseValue, confidence float64, ok bool) *model.FieldDefault {
	if !ok {
		return nil
	}
	return &model.FieldDefault{
		Value:      value,
		Confidence: confidence,
		Source:     model.SourceContextual,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
