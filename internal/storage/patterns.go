package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/procura/smartfill/internal/common"
	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// parseStoredTime reads a CURRENT_TIMESTAMP string back out of SQLite.
func parseStoredTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// UpsertPattern records one observed final value for a field, incrementing
// usage statistics. accepted means the suggestion shown for the field matched
// what the user kept.
func (s *SQLiteStore) UpsertPattern(ctx context.Context, userID string, field model.RequirementField, value model.ResponseValue, accepted bool, fiscalQuarter int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateField(field); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	acceptInc := 0
	if accepted {
		acceptInc = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_patterns (user_id, field, value_kind, value_text, use_count, accept_count, fiscal_quarter)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, field, value_kind, value_text, fiscal_quarter)
		DO UPDATE SET
			use_count = use_count + 1,
			accept_count = accept_count + excluded.accept_count,
			last_used_at = CURRENT_TIMESTAMP
	`, userID, field, value.Kind, value.String(), acceptInc, fiscalQuarter)
	if err != nil {
		return fmt.Errorf("failed to upsert field pattern: %w", err)
	}

	return nil
}

// MarkRejected increments the rejection count for every stored pattern row
// matching the value the user declined.
func (s *SQLiteStore) MarkRejected(ctx context.Context, userID string, field model.RequirementField, value model.ResponseValue) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateField(field); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE field_patterns
		SET reject_count = reject_count + 1
		WHERE user_id = ? AND field = ? AND value_kind = ? AND value_text = ?
	`, userID, field, value.Kind, value.String())
	if err != nil {
		return fmt.Errorf("failed to mark pattern rejected: %w", err)
	}

	return nil
}

// GetTopPattern returns the most used value for (user, field), aggregated
// across fiscal quarters.
func (s *SQLiteStore) GetTopPattern(ctx context.Context, userID string, field model.RequirementField) (*service.FieldPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateField(field); err != nil {
		return nil, err
	}

	// Aggregate expressions lose the column's DATETIME declaration, so the
	// timestamps come back as raw strings and are parsed here.
	var pattern service.FieldPattern
	var lastUsed, created string
	err := s.db.QueryRowContext(ctx, `
		SELECT value_kind, value_text,
			SUM(use_count), SUM(accept_count), SUM(reject_count),
			MAX(last_used_at), MIN(created_at)
		FROM field_patterns
		WHERE user_id = ? AND field = ?
		GROUP BY value_kind, value_text
		ORDER BY SUM(use_count) DESC, MAX(last_used_at) DESC
		LIMIT 1
	`, userID, field).Scan(
		&pattern.ValueKind,
		&pattern.ValueText,
		&pattern.UseCount,
		&pattern.AcceptCount,
		&pattern.RejectCount,
		&lastUsed,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top pattern: %w", err)
	}

	pattern.UserID = userID
	pattern.Field = field
	pattern.LastUsedAt = parseStoredTime(lastUsed)
	pattern.CreatedAt = parseStoredTime(created)
	return &pattern, nil
}

// GetTopPatternByQuarter returns the most used value for (user, field) within
// one fiscal quarter.
func (s *SQLiteStore) GetTopPatternByQuarter(ctx context.Context, userID string, field model.RequirementField, fiscalQuarter int) (*service.FieldPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateField(field); err != nil {
		return nil, err
	}

	var pattern service.FieldPattern
	err := s.db.QueryRowContext(ctx, `
		SELECT id, value_kind, value_text, use_count, accept_count, reject_count,
			fiscal_quarter, last_used_at, created_at
		FROM field_patterns
		WHERE user_id = ? AND field = ? AND fiscal_quarter = ?
		ORDER BY use_count DESC, last_used_at DESC
		LIMIT 1
	`, userID, field, fiscalQuarter).Scan(
		&pattern.ID,
		&pattern.ValueKind,
		&pattern.ValueText,
		&pattern.UseCount,
		&pattern.AcceptCount,
		&pattern.RejectCount,
		&pattern.FiscalQuarter,
		&pattern.LastUsedAt,
		&pattern.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quarterly pattern: %w", err)
	}

	pattern.UserID = userID
	pattern.Field = field
	return &pattern, nil
}

// ListPatterns returns every learned pattern for a user ordered by usage.
func (s *SQLiteStore) ListPatterns(ctx context.Context, userID string) ([]service.FieldPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, field, value_kind, value_text, use_count, accept_count,
			reject_count, fiscal_quarter, last_used_at, created_at
		FROM field_patterns
		WHERE user_id = ?
		ORDER BY use_count DESC, last_used_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []service.FieldPattern
	for rows.Next() {
		pattern := service.FieldPattern{UserID: userID}
		if err := rows.Scan(
			&pattern.ID,
			&pattern.Field,
			&pattern.ValueKind,
			&pattern.ValueText,
			&pattern.UseCount,
			&pattern.AcceptCount,
			&pattern.RejectCount,
			&pattern.FiscalQuarter,
			&pattern.LastUsedAt,
			&pattern.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}

	return patterns, nil
}

// UpsertTransition records that field took this value right after priorField
// was answered.
func (s *SQLiteStore) UpsertTransition(ctx context.Context, userID string, priorField, field model.RequirementField, value model.ResponseValue) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateField(priorField); err != nil {
		return err
	}
	if err := validateField(field); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_transitions (user_id, prior_field, field, value_kind, value_text, use_count)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(user_id, prior_field, field, value_kind, value_text)
		DO UPDATE SET use_count = use_count + 1
	`, userID, priorField, field, value.Kind, value.String())
	if err != nil {
		return fmt.Errorf("failed to upsert field transition: %w", err)
	}

	return nil
}

// GetTopTransition returns the most used value for field given the previously
// answered field.
func (s *SQLiteStore) GetTopTransition(ctx context.Context, userID string, priorField, field model.RequirementField) (*service.FieldTransition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateField(priorField); err != nil {
		return nil, err
	}
	if err := validateField(field); err != nil {
		return nil, err
	}

	var transition service.FieldTransition
	err := s.db.QueryRowContext(ctx, `
		SELECT id, value_kind, value_text, use_count
		FROM field_transitions
		WHERE user_id = ? AND prior_field = ? AND field = ?
		ORDER BY use_count DESC
		LIMIT 1
	`, userID, priorField, field).Scan(
		&transition.ID,
		&transition.ValueKind,
		&transition.ValueText,
		&transition.UseCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top transition: %w", err)
	}

	transition.UserID = userID
	transition.PriorField = priorField
	transition.Field = field
	return &transition, nil
}
