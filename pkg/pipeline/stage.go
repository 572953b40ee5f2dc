// pkg/pipeline/stage.go
package pipeline

import (
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// Stage names one step of a run
type Stage string

const (
	StageIntake    Stage = "intake"
	StageCleaning  Stage = "cleaning"
	StageAnalytics Stage = "analytics"
)

// StageResult contains the outcome of one stage
type StageResult struct {
	Stage     Stage
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Tables    []model.TableSummary
	Error     string
}

// NewStageResult starts timing a stage
func NewStageResult(stage Stage) *StageResult {
	return &StageResult{Stage: stage, StartTime: time.Now()}
}

// Complete marks the stage as finished
func (r *StageResult) Complete(err error) {
	r.EndTime = time.Now()
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns the stage's wall time
func (r *StageResult) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// RowsWritten totals the rows written to the stage's tables
func (r *StageResult) RowsWritten() int64 {
	var total int64
	for _, t := range r.Tables {
		total += int64(t.Rows)
	}
	return total
}
