package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/smartfill/internal/common"
	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// stubSource is a scriptable default source with call counting.
type stubSource struct {
	name  string
	def   *model.FieldDefault
	err   error
	panic bool
	calls atomic.Int64
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) GetDefault(_ context.Context, _ model.RequirementField, _ model.SmartDefaultContext) (*model.FieldDefault, error) {
	s.calls.Add(1)
	if s.panic {
		panic("source blew up")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.def == nil {
		return nil, nil
	}
	def := *s.def
	return &def, nil
}

func fieldDef(value model.ResponseValue, source model.DefaultSource, confidence float64) *model.FieldDefault {
	return &model.FieldDefault{Value: value, Source: source, Confidence: confidence}
}

func mustNew(t *testing.T, cfg Config, sources ...service.DefaultSource) *Aggregator {
	t.Helper()
	agg, err := New(cfg, sources...)
	require.NoError(t, err)
	return agg
}

func TestNew_NoSources(t *testing.T) {
	_, err := New(DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoSources)
}

func TestAggregator_GetDefault_HighestConfidenceInTierWins(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "patterns", def: fieldDef(model.SelectionValue("Engineering"), model.SourceUserPattern, 0.7)},
		&stubSource{name: "rules", def: fieldDef(model.SelectionValue("Operations"), model.SourceContextual, 0.8)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldDepartment, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)

	assert.Equal(t, "Operations", def.Value.Selection)
	assert.Equal(t, model.SourceContextual, def.Source)
	assert.InDelta(t, 0.8, def.Confidence, 0.0001)
}

func TestAggregator_GetDefault_DocumentContextOutranksPatterns(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "patterns", def: fieldDef(model.TextValue("usual vendor"), model.SourceUserPattern, 0.94)},
		&stubSource{name: "documents", def: fieldDef(model.TextValue("Acme Corp"), model.SourceDocumentContext, 0.9)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldVendorName, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)

	// A lower-confidence document candidate still wins: priority before
	// confidence.
	assert.Equal(t, "Acme Corp", def.Value.Text)
	assert.Equal(t, model.SourceDocumentContext, def.Source)
}

func TestAggregator_GetDefault_PastBehaviorOutranksContextual(t *testing.T) {
	// Sequence and quarterly predictions carry the past-behavior source tag,
	// which sits in the top tier alongside document context; a more confident
	// contextual rule must not displace them.
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "patterns", def: fieldDef(model.SelectionValue("Engineering"), model.SourceHistorical, 0.75)},
		&stubSource{name: "rules", def: fieldDef(model.SelectionValue("Operations"), model.SourceContextual, 0.8)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldDepartment, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)

	assert.Equal(t, "Engineering", def.Value.Selection)
	assert.Equal(t, model.SourceHistorical, def.Source)
}

func TestAggregator_GetDefault_AgreementBoost(t *testing.T) {
	amount := model.NumberValue(decimal.RequireFromString("2500"))

	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "patterns", def: fieldDef(amount, model.SourceUserPattern, 0.7)},
		&stubSource{name: "rules", def: fieldDef(amount, model.SourceContextual, 0.75)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldAmount, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)

	// Two agreeing sources: 0.75 * 1.1 = 0.825, attributed to the winning
	// candidate's source.
	assert.InDelta(t, 0.825, def.Confidence, 0.0001)
	assert.True(t, amount.Equal(def.Value))
}

func TestAggregator_GetDefault_BoostCappedAtOne(t *testing.T) {
	value := model.SelectionValue("USD")

	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "documents", def: fieldDef(value, model.SourceDocumentContext, 0.95)},
		&stubSource{name: "static", def: fieldDef(value, model.SourceSystemDefault, 0.75)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldCurrency, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.InDelta(t, 1.0, def.Confidence, 0.0001)
}

func TestAggregator_GetDefault_BelowMinimumIsNoDefault(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "static", def: fieldDef(model.TextValue("weak"), model.SourceSystemDefault, 0.5)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldJustification, model.SmartDefaultContext{})
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestAggregator_GetDefault_ThresholdCheckedBeforeBoost(t *testing.T) {
	// Two agreeing candidates at 0.6 would boost past 0.65, but the bar
	// applies to the pre-boost winner.
	value := model.TextValue("shaky")
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "a", def: fieldDef(value, model.SourceUserPattern, 0.6)},
		&stubSource{name: "b", def: fieldDef(value, model.SourceContextual, 0.6)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldProject, model.SmartDefaultContext{})
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestAggregator_GetDefault_SourceFailuresAbsorbed(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "broken", err: errors.New("db unavailable")},
		&stubSource{name: "panicky", panic: true},
		&stubSource{name: "quiet", def: nil},
		&stubSource{name: "working", def: fieldDef(model.SelectionValue("medium"), model.SourceSystemDefault, 0.66)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldPriority, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "medium", def.Value.Selection)
}

func TestAggregator_GetDefault_AllSourcesFailing(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "broken", err: errors.New("down")},
		&stubSource{name: "panicky", panic: true},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldTitle, model.SmartDefaultContext{})
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestAggregator_GetDefault_CachesMergedResult(t *testing.T) {
	src := &stubSource{name: "rules", def: fieldDef(model.SelectionValue("HQ"), model.SourceContextual, 0.75)}
	agg := mustNew(t, DefaultConfig(), src)
	defer agg.Close()

	ctx := context.Background()
	sdc := model.SmartDefaultContext{}

	first, err := agg.GetDefault(ctx, model.FieldDeliveryLocation, sdc)
	require.NoError(t, err)
	second, err := agg.GetDefault(ctx, model.FieldDeliveryLocation, sdc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), src.calls.Load(), "second lookup must come from cache")
}

func TestAggregator_Invalidate_ForcesRequery(t *testing.T) {
	src := &stubSource{name: "rules", def: fieldDef(model.SelectionValue("HQ"), model.SourceContextual, 0.75)}
	agg := mustNew(t, DefaultConfig(), src)
	defer agg.Close()

	ctx := context.Background()
	sdc := model.SmartDefaultContext{}

	_, err := agg.GetDefault(ctx, model.FieldDeliveryLocation, sdc)
	require.NoError(t, err)

	agg.Invalidate(model.FieldDeliveryLocation)

	src.def = fieldDef(model.SelectionValue("Warehouse B"), model.SourceContextual, 0.75)
	def, err := agg.GetDefault(ctx, model.FieldDeliveryLocation, sdc)
	require.NoError(t, err)
	require.NotNil(t, def)

	assert.Equal(t, "Warehouse B", def.Value.Selection)
	assert.Equal(t, int64(2), src.calls.Load())
}

func TestAggregator_GetDefaults_BatchCollectsAllFields(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "static", def: fieldDef(model.SelectionValue("USD"), model.SourceSystemDefault, 0.75)},
	)
	defer agg.Close()

	fields := []model.RequirementField{model.FieldCurrency, model.FieldPaymentTerms, model.FieldQuantity}
	defaults := agg.GetDefaults(context.Background(), fields, model.SmartDefaultContext{})

	// The stub answers every field with the same proposal.
	assert.Len(t, defaults, 3)
	for _, field := range fields {
		assert.Contains(t, defaults, field)
	}
}

func TestAggregator_GetDefaultsStream_ClosesAfterLastField(t *testing.T) {
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "static", def: fieldDef(model.SelectionValue("USD"), model.SourceSystemDefault, 0.75)},
	)
	defer agg.Close()

	fields := []model.RequirementField{model.FieldCurrency, model.FieldQuantity}
	stream := agg.GetDefaultsStream(context.Background(), fields, model.SmartDefaultContext{})

	seen := make(map[model.RequirementField]bool)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case result, ok := <-stream:
			if !ok {
				assert.Len(t, seen, 2)
				return
			}
			seen[result.Field] = true
		case <-timeout:
			t.Fatal("stream never closed")
		}
	}
}

func TestAggregator_GetDefault_DeterministicTieBreak(t *testing.T) {
	// Same tier, same confidence: the alphabetically first source name wins
	// so repeated merges are stable.
	agg := mustNew(t, DefaultConfig(),
		&stubSource{name: "zeta", def: fieldDef(model.TextValue("from zeta"), model.SourceContextual, 0.7)},
		&stubSource{name: "alpha", def: fieldDef(model.TextValue("from alpha"), model.SourceUserPattern, 0.7)},
	)
	defer agg.Close()

	def, err := agg.GetDefault(context.Background(), model.FieldApprover, model.SmartDefaultContext{})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "from alpha", def.Value.Text)
}
