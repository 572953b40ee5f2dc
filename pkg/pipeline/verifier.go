// pkg/pipeline/verifier.go
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// Verifier checks that the store holds what each stage reported writing
type Verifier struct {
	store     *store.Store
	rawPrefix string
	logger    *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(st *store.Store, rawPrefix string, logger *zap.Logger) *Verifier {
	return &Verifier{
		store:     st,
		rawPrefix: rawPrefix,
		logger:    logger.Named("verifier"),
	}
}

// VerifyRowCount compares a table's stored row count with the expected count
func (v *Verifier) VerifyRowCount(ctx context.Context, table string, expected int64) (bool, int64, error) {
	actual, err := v.store.CountRows(ctx, table)
	if err != nil {
		return false, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	matches := actual == expected
	if !matches {
		v.logger.Warn("Row count mismatch",
			zap.String("table", table),
			zap.Int64("expected", expected),
			zap.Int64("actual", actual))
	}
	return matches, actual, nil
}

// VerifyCleaning checks that each kind's clean, quarantine and duplicate counts
// partition its raw table, and that the stored tables hold those counts
func (v *Verifier) VerifyCleaning(ctx context.Context, summaries []model.CleaningSummary) error {
	for _, s := range summaries {
		if !s.Balanced() {
			return fmt.Errorf("%w: %s clean=%d quarantined=%d duplicates=%d do not add up to raw=%d",
				ErrVerification, s.Kind, s.Clean, s.Quarantined, s.Duplicates, s.Raw)
		}

		checks := []struct {
			table    string
			expected int
		}{
			{model.RawTableName(v.rawPrefix, s.Kind), s.Raw},
			{model.CleanTableName(s.Kind), s.Clean},
			{model.QuarantineTableName(s.Kind), s.Quarantined},
		}
		for _, c := range checks {
			ok, actual, err := v.VerifyRowCount(ctx, c.table, int64(c.expected))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s holds %d rows, expected %d", ErrVerification, c.table, actual, c.expected)
			}
		}
	}
	return nil
}

// VerifyTables checks every reported table summary against the store
func (v *Verifier) VerifyTables(ctx context.Context, summaries []model.TableSummary) error {
	for _, s := range summaries {
		ok, actual, err := v.VerifyRowCount(ctx, s.Table, int64(s.Rows))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s holds %d rows, expected %d", ErrVerification, s.Table, actual, s.Rows)
		}
	}
	return nil
}
