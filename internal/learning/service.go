// Package learning implements the closed-loop learning collaborator: it turns
// interaction records into stored field patterns and serves predictions back
// to the aggregator's pattern source.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/procura/smartfill/internal/common"
	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// Service implements service.LearningService over a PatternStore.
type Service struct {
	store service.PatternStore
}

// New creates a learning service backed by the given store.
func New(store service.PatternStore) *Service {
	return &Service{store: store}
}

// Learn folds one interaction into the pattern model: the final value's usage
// statistics grow, a declined suggestion is penalized, and the prior-field
// transition is recorded for sequence-aware prediction. Skipped responses
// carry no value and are only logged as interactions.
func (s *Service) Learn(ctx context.Context, interaction model.Interaction) error {
	if interaction.SessionID == "" {
		return fmt.Errorf("%w: session id", common.ErrMissingConfig)
	}

	writes := func() error {
		if err := s.store.RecordInteraction(ctx, interaction); err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}

		if interaction.FinalValue.IsSkip() {
			return nil
		}

		// Patterns are keyed by user, not session, so learning survives
		// the conversation that produced it.
		userID := interaction.UserID
		if userID == "" {
			userID = interaction.SessionID
		}

		if err := s.store.UpsertPattern(ctx, userID, interaction.Field,
			interaction.FinalValue, interaction.AcceptedSuggestion,
			interaction.FiscalQuarter); err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}

		if interaction.SuggestedValue != nil && !interaction.AcceptedSuggestion {
			if err := s.store.MarkRejected(ctx, userID, interaction.Field,
				*interaction.SuggestedValue); err != nil {
				return &common.RetryableError{Err: err, Retryable: true}
			}
		}

		if interaction.PriorField != nil {
			if err := s.store.UpsertTransition(ctx, userID, *interaction.PriorField,
				interaction.Field, interaction.FinalValue); err != nil {
				return &common.RetryableError{Err: err, Retryable: true}
			}
		}

		return nil
	}

	// SQLite write contention shows up as transient busy errors.
	err := common.WithRetry(ctx, writes, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	})
	if err != nil {
		return fmt.Errorf("failed to learn interaction: %w", err)
	}

	slog.Debug("Learned interaction",
		"session_id", interaction.SessionID,
		"field", interaction.Field,
		"accepted", interaction.AcceptedSuggestion)

	return nil
}

// Predict returns the user's most used value for the field, weighted by how
// often suggestions of it were accepted.
func (s *Service) Predict(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	pattern, err := s.store.GetTopPattern(ctx, s.userID(sdc), field)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to predict for %s: %w", field, err)
	}

	value, err := model.ParseValue(pattern.ValueKind, pattern.ValueText)
	if err != nil {
		return nil, fmt.Errorf("stored pattern for %s is unreadable: %w", field, err)
	}

	return &model.FieldDefault{
		Value:      value,
		Confidence: patternConfidence(pattern.UseCount, pattern.AcceptCount, pattern.RejectCount),
		Source:     model.SourceUserPattern,
	}, nil
}

// PredictSequence returns the value most often chosen for field right after
// the most recently answered prior field.
func (s *Service) PredictSequence(ctx context.Context, field model.RequirementField, prior []model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	if len(prior) == 0 {
		return nil, nil
	}

	transition, err := s.store.GetTopTransition(ctx, s.userID(sdc), prior[len(prior)-1], field)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to predict sequence for %s: %w", field, err)
	}

	value, err := model.ParseValue(transition.ValueKind, transition.ValueText)
	if err != nil {
		return nil, fmt.Errorf("stored transition for %s is unreadable: %w", field, err)
	}

	confidence := 0.55 + 0.05*float64(min(transition.UseCount, 7))

	// Sequence evidence is past-behavior evidence, same as the quarterly
	// read path; both outrank plain frequency in the merge.
	return &model.FieldDefault{
		Value:      value,
		Confidence: clamp(confidence),
		Source:     model.SourceHistorical,
	}, nil
}

// PredictTimeAware returns the value the user favors in the current fiscal
// quarter, when quarterly behavior differs from the overall pattern.
func (s *Service) PredictTimeAware(ctx context.Context, field model.RequirementField, now time.Time, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	_, quarter, _, _ := model.FiscalCalendar(now)

	pattern, err := s.store.GetTopPatternByQuarter(ctx, s.userID(sdc), field, quarter)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to predict time-aware for %s: %w", field, err)
	}

	value, err := model.ParseValue(pattern.ValueKind, pattern.ValueText)
	if err != nil {
		return nil, fmt.Errorf("stored quarterly pattern for %s is unreadable: %w", field, err)
	}

	// Quarter-aligned evidence is worth slightly more than raw frequency.
	confidence := patternConfidence(pattern.UseCount, pattern.AcceptCount, pattern.RejectCount) + 0.05

	return &model.FieldDefault{
		Value:      value,
		Confidence: clamp(confidence),
		Source:     model.SourceHistorical,
	}, nil
}

// patternConfidence scores a learned pattern: frequency builds confidence up
// from 0.5, acceptance history scales it, and the ceiling stays below the
// auto-fill bar a single source should not clear on its own.
func patternConfidence(useCount, acceptCount, rejectCount int) float64 {
	confidence := 0.5 + 0.05*float64(min(useCount, 8))

	if total := acceptCount + rejectCount; total > 0 {
		rate := float64(acceptCount) / float64(total)
		confidence *= 0.5 + 0.5*rate
	}

	return clamp(confidence)
}

func (s *Service) userID(sdc model.SmartDefaultContext) string {
	if sdc.UserID != "" {
		return sdc.UserID
	}
	return sdc.SessionID
}

func clamp(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 0.95 {
		return 0.95
	}
	return confidence
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
