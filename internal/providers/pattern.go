package providers

import (
	"context"
	"time"

	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// PatternSource adapts the learning service into a default source. It prefers
// the sharper read paths: what the user chose after the field they just
// answered, then what they favor this fiscal quarter, then their overall
// most-used value.
type PatternSource struct {
	learner service.LearningService
	now     func() time.Time
}

// NewPatternSource creates the pattern learning source.
func NewPatternSource(learner service.LearningService) *PatternSource {
	return &PatternSource{
		learner: learner,
		now:     time.Now,
	}
}

// Name identifies the source in logs.
func (s *PatternSource) Name() string {
	return "pattern-learning"
}

// GetDefault consults the learning model's prediction paths in order of
// specificity, returning the first that produces a candidate.
func (s *PatternSource) GetDefault(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	if len(sdc.CompletedFields) > 0 {
		def, err := s.learner.PredictSequence(ctx, field, sdc.CompletedFields, sdc)
		if err != nil {
			return nil, err
		}
		if def != nil {
			return def, nil
		}
	}

	def, err := s.learner.PredictTimeAware(ctx, field, s.now(), sdc)
	if err != nil {
		return nil, err
	}
	if def != nil {
		return def, nil
	}

	return s.learner.Predict(ctx, field, sdc)
}
