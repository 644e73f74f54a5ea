package autofill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/smartfill/internal/model"
)

// stubAggregator returns a fixed defaults map.
type stubAggregator struct {
	defaults map[model.RequirementField]model.FieldDefault
}

func (s *stubAggregator) GetDefault(_ context.Context, field model.RequirementField, _ model.SmartDefaultContext) (*model.FieldDefault, error) {
	if def, ok := s.defaults[field]; ok {
		return &def, nil
	}
	return nil, nil
}

func (s *stubAggregator) GetDefaults(_ context.Context, fields []model.RequirementField, _ model.SmartDefaultContext) map[model.RequirementField]model.FieldDefault {
	out := make(map[model.RequirementField]model.FieldDefault)
	for _, field := range fields {
		if def, ok := s.defaults[field]; ok {
			out[field] = def
		}
	}
	return out
}

func (s *stubAggregator) Invalidate(_ model.RequirementField) {}

func defaultAt(text string, confidence float64) model.FieldDefault {
	return model.FieldDefault{
		Value:      model.TextValue(text),
		Source:     model.SourceUserPattern,
		Confidence: confidence,
	}
}

func TestClassifier_Classify_Partition(t *testing.T) {
	agg := &stubAggregator{defaults: map[model.RequirementField]model.FieldDefault{
		model.FieldDepartment: defaultAt("Engineering", 0.9), // auto-fill
		model.FieldCurrency:   defaultAt("USD", 0.86),        // auto-fill
		model.FieldCostCenter: defaultAt("CC-100", 0.7),      // suggest
		model.FieldQuantity:   defaultAt("1", 0.5),           // below minimum
		// FieldJustification: no default at all
	}}

	c := New(agg, DefaultConfig())

	fields := []model.RequirementField{
		model.FieldDepartment, model.FieldCurrency, model.FieldCostCenter,
		model.FieldQuantity, model.FieldJustification,
	}

	result, err := c.Classify(context.Background(), fields, model.SmartDefaultContext{})
	require.NoError(t, err)

	assert.Len(t, result.AutoFilled, 2)
	assert.Equal(t, "Engineering", result.AutoFilled[model.FieldDepartment].Text)
	assert.Equal(t, "USD", result.AutoFilled[model.FieldCurrency].Text)

	assert.Len(t, result.Suggested, 1)
	assert.Contains(t, result.Suggested, model.FieldCostCenter)

	assert.Equal(t, []model.RequirementField{model.FieldQuantity, model.FieldJustification}, result.MustAsk)

	assert.Equal(t, 2, result.Summary.AutoFilledCount)
	assert.Equal(t, 1, result.Summary.SuggestedCount)
	assert.Equal(t, 2, result.Summary.MustAskCount)

	// The partition is total: every input field lands in exactly one bucket.
	for _, field := range fields {
		assert.True(t, result.Bucketed(field), "field %s not bucketed", field)
	}
	assert.False(t, result.Bucketed(model.FieldWarranty))
}

func TestClassifier_Classify_CriticalFieldsNeverAutoFill(t *testing.T) {
	agg := &stubAggregator{defaults: map[model.RequirementField]model.FieldDefault{
		model.FieldAmount:   defaultAt("5000", 0.95),
		model.FieldApprover: defaultAt("pat.lee", 0.92),
	}}

	c := New(agg, DefaultConfig())

	result, err := c.Classify(context.Background(),
		[]model.RequirementField{model.FieldAmount, model.FieldApprover},
		model.SmartDefaultContext{})
	require.NoError(t, err)

	assert.Empty(t, result.AutoFilled)
	assert.Len(t, result.Suggested, 2)
}

func TestClassifier_Classify_CriticalOverride(t *testing.T) {
	agg := &stubAggregator{defaults: map[model.RequirementField]model.FieldDefault{
		model.FieldApprover: defaultAt("pat.lee", 0.92),
	}}

	cfg := DefaultConfig()
	cfg.AutoFillCriticalFields = true
	c := New(agg, cfg)

	result, err := c.Classify(context.Background(),
		[]model.RequirementField{model.FieldApprover},
		model.SmartDefaultContext{})
	require.NoError(t, err)

	assert.Len(t, result.AutoFilled, 1)
	assert.Empty(t, result.Suggested)
}

func TestClassifier_Classify_ContextThresholdOverride(t *testing.T) {
	agg := &stubAggregator{defaults: map[model.RequirementField]model.FieldDefault{
		model.FieldDepartment: defaultAt("Engineering", 0.8),
	}}

	c := New(agg, DefaultConfig())

	// Default 0.85 bar: suggested.
	result, err := c.Classify(context.Background(),
		[]model.RequirementField{model.FieldDepartment},
		model.SmartDefaultContext{})
	require.NoError(t, err)
	assert.Empty(t, result.AutoFilled)
	assert.Len(t, result.Suggested, 1)

	// A session lowering the bar to 0.75 auto-fills the same field.
	result, err = c.Classify(context.Background(),
		[]model.RequirementField{model.FieldDepartment},
		model.SmartDefaultContext{AutoFillThreshold: 0.75})
	require.NoError(t, err)
	assert.Len(t, result.AutoFilled, 1)
	assert.Empty(t, result.Suggested)
}

func TestClassifier_Classify_CapDemotesLowestConfidenceFirst(t *testing.T) {
	defaults := map[model.RequirementField]model.FieldDefault{
		model.FieldDepartment:   defaultAt("Engineering", 0.95),
		model.FieldCurrency:     defaultAt("USD", 0.90),
		model.FieldCostCenter:   defaultAt("CC-100", 0.88),
		model.FieldPaymentTerms: defaultAt("Net 30", 0.86),
	}
	agg := &stubAggregator{defaults: defaults}

	cfg := DefaultConfig()
	cfg.MaxAutoFillFields = 2
	c := New(agg, cfg)

	result, err := c.Classify(context.Background(),
		[]model.RequirementField{
			model.FieldDepartment, model.FieldCurrency,
			model.FieldCostCenter, model.FieldPaymentTerms,
		},
		model.SmartDefaultContext{})
	require.NoError(t, err)

	assert.Len(t, result.AutoFilled, 2)
	assert.Contains(t, result.AutoFilled, model.FieldDepartment)
	assert.Contains(t, result.AutoFilled, model.FieldCurrency)

	assert.Len(t, result.Suggested, 2)
	assert.Contains(t, result.Suggested, model.FieldCostCenter)
	assert.Contains(t, result.Suggested, model.FieldPaymentTerms)
}

func TestClassifier_Classify_EmptyFieldSet(t *testing.T) {
	c := New(&stubAggregator{}, DefaultConfig())

	result, err := c.Classify(context.Background(), nil, model.SmartDefaultContext{})
	require.NoError(t, err)

	assert.Empty(t, result.AutoFilled)
	assert.Empty(t, result.Suggested)
	assert.Empty(t, result.MustAsk)
	assert.Equal(t, 0, result.Summary.AutoFilledCount)
}
