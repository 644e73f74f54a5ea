package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/procura/smartfill/internal/model"
)

// RecordInteraction appends one interaction record for later analysis.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, interaction model.Interaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(interaction.SessionID, "sessionID"); err != nil {
		return err
	}
	if err := validateField(interaction.Field); err != nil {
		return err
	}

	var suggestedKind, suggestedText sql.NullString
	if interaction.SuggestedValue != nil {
		suggestedKind = sql.NullString{String: string(interaction.SuggestedValue.Kind), Valid: true}
		suggestedText = sql.NullString{String: interaction.SuggestedValue.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (
			session_id, user_id, field, suggested_kind, suggested_text, accepted,
			final_kind, final_text, latency_ms, had_doc_context, fiscal_quarter
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		interaction.SessionID,
		interaction.UserID,
		interaction.Field,
		suggestedKind,
		suggestedText,
		interaction.AcceptedSuggestion,
		interaction.FinalValue.Kind,
		interaction.FinalValue.String(),
		interaction.ResponseLatency.Milliseconds(),
		interaction.HadDocumentContext,
		interaction.FiscalQuarter,
	)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}

	return nil
}

// CountInteractions returns the number of recorded interactions for a session.
func (s *SQLiteStore) CountInteractions(ctx context.Context, sessionID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	return count, nil
}
