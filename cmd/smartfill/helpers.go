package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/procura/smartfill/internal/aggregator"
	"github.com/procura/smartfill/internal/autofill"
	"github.com/procura/smartfill/internal/conversation"
	"github.com/procura/smartfill/internal/extract"
	"github.com/procura/smartfill/internal/learning"
	"github.com/procura/smartfill/internal/providers"
	"github.com/procura/smartfill/internal/questions"
	"github.com/procura/smartfill/internal/storage"
)

// initStorage opens the pattern database with proper path expansion and runs
// migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/smartfill/smartfill.db"
	}

	store, err := storage.NewSQLiteStore(expandPath(dbPath))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// engineParts bundles the assembled engine with the handles commands need.
type engineParts struct {
	store        *storage.SQLiteStore
	aggregator   *aggregator.Aggregator
	orchestrator *conversation.Orchestrator
}

// buildEngine wires storage, learning, the four default sources, the
// aggregator, the classifier, and the orchestrator from viper configuration.
func buildEngine(ctx context.Context) (*engineParts, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	learner := learning.New(store)

	aggCfg := aggregator.DefaultConfig()
	if v := viper.GetFloat64("defaults.min_confidence"); v > 0 {
		aggCfg.MinConfidence = v
	}
	if v := viper.GetDuration("defaults.cache_ttl"); v > 0 {
		aggCfg.CacheTTL = v
	}

	agg, err := aggregator.New(aggCfg,
		providers.NewDocumentContextSource(),
		providers.NewPatternSource(learner),
		providers.NewContextualRulesSource(orgProfileFromConfig()),
		providers.NewStaticDefaultsSource(),
	)
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close store: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to build aggregator: %w", err)
	}

	classCfg := autofill.DefaultConfig()
	if v := viper.GetFloat64("autofill.threshold"); v > 0 {
		classCfg.AutoFillThreshold = v
	}
	if v := viper.GetInt("autofill.max_fields"); v > 0 {
		classCfg.MaxAutoFillFields = v
	}
	classCfg.AutoFillCriticalFields = viper.GetBool("autofill.fill_critical")

	classifier := autofill.New(agg, classCfg)

	extractor, err := extract.NewKeywordExtractor()
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			err = fmt.Errorf("%w (also failed to close store: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}

	orchestrator := conversation.New(agg, classifier, extractor, questions.NewGenerator(), learner)

	return &engineParts{
		store:        store,
		aggregator:   agg,
		orchestrator: orchestrator,
	}, nil
}

// Close releases the engine's resources.
func (e *engineParts) Close() {
	e.aggregator.Close()
	_ = e.store.Close()
}

// orgProfileFromConfig reads the organizational defaults the contextual rules
// source proposes from.
func orgProfileFromConfig() providers.OrgProfile {
	return providers.OrgProfile{
		Department:       viper.GetString("org.department"),
		CostCenter:       viper.GetString("org.cost_center"),
		DeliveryLocation: viper.GetString("org.delivery_location"),
		Approver:         viper.GetString("org.approver"),
		BudgetCode:       viper.GetString("org.budget_code"),
	}
}

// expandPath resolves a configured database path: a leading ~ becomes the
// user's home directory and $VAR references are expanded. A path that cannot
// be resolved is passed through so sqlite reports the real open failure.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
