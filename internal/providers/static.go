package providers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/procura/smartfill/internal/model"
)

// StaticDefaultsSource proposes the provider's built-in defaults: the values
// that are right for most requests when nothing better is known. It sits in
// the lowest priority tier and only ever wins when no other source speaks.
type StaticDefaultsSource struct {
	now func() time.Time
}

// NewStaticDefaultsSource creates the static smart defaults source.
func NewStaticDefaultsSource() *StaticDefaultsSource {
	return &StaticDefaultsSource{now: time.Now}
}

// Name identifies the source in logs.
func (s *StaticDefaultsSource) Name() string {
	return "static-defaults"
}

// GetDefault returns the built-in default for the field, if one exists.
func (s *StaticDefaultsSource) GetDefault(_ context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	switch field {
	case model.FieldCurrency:
		return static(model.SelectionValue("USD"), 0.75), nil

	case model.FieldQuantity:
		return static(model.NumberValue(decimal.NewFromInt(1)), 0.7), nil

	case model.FieldPaymentTerms:
		return static(model.SelectionValue("Net 30"), 0.7), nil

	case model.FieldPriority:
		return static(model.SelectionValue("medium"), 0.66), nil

	case model.FieldRequiredDate:
		// Thirty days out, clamped to the fiscal year boundary so a
		// default never lands in money that doesn't exist yet.
		target := s.now().AddDate(0, 0, 30)
		if sdc.DaysToFiscalYearEnd > 0 && sdc.DaysToFiscalYearEnd < 30 {
			target = s.now().AddDate(0, 0, sdc.DaysToFiscalYearEnd)
		}
		return static(model.DateValue(truncateToDay(target)), 0.66), nil
	}

	return nil, nil
}

func static(value model.ResponseValue, confidence float64) *model.FieldDefault {
	return &model.FieldDefault{
		Value:      value,
		Confidence: confidence,
		Source:     model.SourceSystemDefault,
	}
}
