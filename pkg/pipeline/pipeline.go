// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/analytics"
	"github.com/David-Botos/event-lakehouse/pkg/cleaner"
	"github.com/David-Botos/event-lakehouse/pkg/config"
	"github.com/David-Botos/event-lakehouse/pkg/intake"
	"github.com/David-Botos/event-lakehouse/pkg/model"
	"github.com/David-Botos/event-lakehouse/pkg/store"
)

// Runner drives intake, cleaning and analytics against one store
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	source   intake.Source
	verifier *Verifier
	logger   *zap.Logger
}

// NewRunner creates a runner. source may be nil when only Transform is used.
func NewRunner(cfg *config.Config, st *store.Store, source intake.Source, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Runner{
		cfg:      cfg,
		store:    st,
		source:   source,
		verifier: NewVerifier(st, cfg.RawPrefix, logger),
		logger:   logger.Named("pipeline"),
	}, nil
}

// Run executes intake, cleaning and analytics in order. Any stage failure aborts
// the run; tables written by earlier stages are left in place.
func (r *Runner) Run(ctx context.Context) (*RunMetrics, error) {
	if r.source == nil {
		return nil, errors.New("run requires an intake source")
	}

	metrics := r.start("run")
	if err := r.runStage(ctx, metrics, StageIntake, r.loadRaw); err != nil {
		return metrics, err
	}
	return metrics, r.transform(ctx, metrics)
}

// Transform re-runs cleaning and analytics over the raw tables already in the store
func (r *Runner) Transform(ctx context.Context) (*RunMetrics, error) {
	metrics := r.start("transform")
	return metrics, r.transform(ctx, metrics)
}

func (r *Runner) start(mode string) *RunMetrics {
	metrics := NewRunMetrics(uuid.New().String(), r.logger)
	r.logger.Info("Starting pipeline",
		zap.String("run_id", metrics.RunID),
		zap.String("mode", mode),
		zap.String("store", r.store.Driver()),
		zap.String("raw_prefix", r.cfg.RawPrefix))
	return metrics
}

func (r *Runner) transform(ctx context.Context, metrics *RunMetrics) error {
	if err := r.runStage(ctx, metrics, StageCleaning, r.cleanRaw); err != nil {
		return err
	}
	if err := r.runStage(ctx, metrics, StageAnalytics, r.derive); err != nil {
		return err
	}
	metrics.Complete()
	return nil
}

type stageFunc func(context.Context, *RunMetrics) ([]model.TableSummary, error)

// runStage times one stage and records its outcome. Failures are categorized
// and returned as *StageError; nothing is retried.
func (r *Runner) runStage(ctx context.Context, metrics *RunMetrics, stage Stage, fn stageFunc) error {
	result := NewStageResult(stage)

	var err error
	if err = ctx.Err(); err == nil {
		result.Tables, err = fn(ctx, metrics)
	}

	if err != nil {
		stageErr := newStageError(stage, err)
		result.Complete(stageErr)
		metrics.RecordStage(result)
		metrics.RecordError(stageErr.Category)
		metrics.Complete()

		r.logger.Error("Stage failed",
			zap.String("run_id", metrics.RunID),
			zap.String("stage", string(stage)),
			zap.String("category", stageErr.Category.String()),
			zap.Error(err))
		return stageErr
	}

	result.Complete(nil)
	metrics.RecordStage(result)
	return nil
}

func (r *Runner) loadRaw(ctx context.Context, metrics *RunMetrics) ([]model.TableSummary, error) {
	summaries, err := intake.NewLoader(r.source, r.store, r.cfg.RawPrefix, r.logger).Load(ctx)
	metrics.Intake = summaries
	if err != nil {
		return nil, err
	}

	tables := make([]model.TableSummary, len(summaries))
	for i, s := range summaries {
		tables[i] = model.TableSummary{Table: s.Table, Rows: s.Loaded}
		if s.Dropped > 0 {
			r.logger.Warn("Dropped malformed input rows",
				zap.String("kind", string(s.Kind)),
				zap.Int("dropped", s.Dropped))
		}
	}
	if err := r.verifier.VerifyTables(ctx, tables); err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *Runner) cleanRaw(ctx context.Context, metrics *RunMetrics) ([]model.TableSummary, error) {
	dc, err := cleaner.NewDataCleaner(r.store, r.cfg.RawPrefix, r.cfg.BotThreshold, r.logger)
	if err != nil {
		return nil, err
	}

	summaries, err := dc.Run(ctx)
	metrics.Cleaning = summaries
	if err != nil {
		return nil, err
	}
	if err := r.verifier.VerifyCleaning(ctx, summaries); err != nil {
		return nil, err
	}

	tables := make([]model.TableSummary, 0, 2*len(summaries))
	for _, s := range summaries {
		tables = append(tables,
			model.TableSummary{Table: model.CleanTableName(s.Kind), Rows: s.Clean},
			model.TableSummary{Table: model.QuarantineTableName(s.Kind), Rows: s.Quarantined})
	}
	return tables, nil
}

func (r *Runner) derive(ctx context.Context, metrics *RunMetrics) ([]model.TableSummary, error) {
	d, err := analytics.NewDeriver(r.store, r.logger)
	if err != nil {
		return nil, err
	}

	summaries, err := d.Run(ctx)
	metrics.Metrics = summaries
	if err != nil {
		return nil, err
	}
	if err := r.verifier.VerifyTables(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
