// pkg/pipeline/metrics.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// RunMetrics tracks metrics for one pipeline run
type RunMetrics struct {
	logger      *zap.Logger
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	Stages      []*StageResult
	Intake      []model.IntakeSummary
	Cleaning    []model.CleaningSummary
	Metrics     []model.TableSummary
	ErrorCounts map[ErrorCategory]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(runID string, logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:      logger,
		RunID:       runID,
		StartTime:   time.Now(),
		ErrorCounts: make(map[ErrorCategory]int),
	}
}

// RecordStage stores a finished stage result and logs it
func (rm *RunMetrics) RecordStage(result *StageResult) {
	rm.Stages = append(rm.Stages, result)

	if rm.logger != nil {
		rm.logger.Info("Stage completed",
			zap.String("run_id", rm.RunID),
			zap.String("stage", string(result.Stage)),
			zap.Bool("success", result.Success),
			zap.Int("tables", len(result.Tables)),
			zap.Int64("rows_written", result.RowsWritten()),
			zap.Duration("duration", result.Duration()))
	}
}

// RecordError increments the count for a specific error category
func (rm *RunMetrics) RecordError(category ErrorCategory) {
	rm.ErrorCounts[category]++
}

// Complete marks the run as complete
func (rm *RunMetrics) Complete() {
	rm.EndTime = time.Now()

	if rm.logger != nil {
		rm.logger.Info("Pipeline run completed",
			zap.String("run_id", rm.RunID),
			zap.Duration("total_duration", rm.Duration()),
			zap.Bool("success", rm.Succeeded()),
			zap.Int64("rows_written", rm.TotalRowsWritten()))
	}
}

// Duration returns the total duration of the run
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// Succeeded reports whether every recorded stage succeeded
func (rm *RunMetrics) Succeeded() bool {
	for _, s := range rm.Stages {
		if !s.Success {
			return false
		}
	}
	return len(rm.Stages) > 0
}

// TotalRowsWritten totals rows written across all stages
func (rm *RunMetrics) TotalRowsWritten() int64 {
	var total int64
	for _, s := range rm.Stages {
		total += s.RowsWritten()
	}
	return total
}

// DroppedRows totals the parse-level drops reported by intake
func (rm *RunMetrics) DroppedRows() int {
	total := 0
	for _, s := range rm.Intake {
		total += s.Dropped
	}
	return total
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateReport creates a plain-text run report
func (rm *RunMetrics) GenerateReport() string {
	var sb strings.Builder

	status := "SUCCESS"
	if !rm.Succeeded() {
		status = "FAILED"
	}

	fmt.Fprintf(&sb, `
Pipeline Run Report
===================
Run ID:                  %s
Status:                  %s
Duration:                %s
Start Time:              %s
Rows Written:            %d
`,
		rm.RunID,
		status,
		formatDuration(rm.Duration()),
		rm.StartTime.Format(time.RFC3339),
		rm.TotalRowsWritten(),
	)

	sb.WriteString("\nStages\n------\n")
	for _, s := range rm.Stages {
		line := fmt.Sprintf("- %s: %s, %d tables, %d rows", s.Stage, formatDuration(s.Duration()), len(s.Tables), s.RowsWritten())
		if !s.Success {
			line += " (failed: " + s.Error + ")"
		}
		sb.WriteString(line + "\n")
	}

	if len(rm.Intake) > 0 {
		sb.WriteString("\nIntake\n------\n")
		for _, s := range rm.Intake {
			fmt.Fprintf(&sb, "- %s: %d loaded, %d malformed dropped\n", s.Table, s.Loaded, s.Dropped)
		}
	}

	if len(rm.Cleaning) > 0 {
		sb.WriteString("\nCleaning\n--------\n")
		for _, s := range rm.Cleaning {
			fmt.Fprintf(&sb, "- %s: %d raw, %d clean, %d quarantined, %d duplicates\n",
				s.Kind, s.Raw, s.Clean, s.Quarantined, s.Duplicates)
		}
	}

	if len(rm.Metrics) > 0 {
		sb.WriteString("\nMetrics\n-------\n")
		for _, s := range rm.Metrics {
			fmt.Fprintf(&sb, "- %s: %d rows\n", s.Table, s.Rows)
		}
	}

	if len(rm.ErrorCounts) > 0 {
		sb.WriteString("\nErrors\n------\n")
		for category, count := range rm.ErrorCounts {
			fmt.Fprintf(&sb, "- %s: %d\n", category, count)
		}
	}

	return sb.String()
}

// ToJSON serializes metrics to JSON
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	type stageJSON struct {
		Stage    Stage  `json:"stage"`
		Success  bool   `json:"success"`
		Duration string `json:"duration"`
		Rows     int64  `json:"rowsWritten"`
		Error    string `json:"error,omitempty"`
	}

	stages := make([]stageJSON, len(rm.Stages))
	for i, s := range rm.Stages {
		stages[i] = stageJSON{
			Stage:    s.Stage,
			Success:  s.Success,
			Duration: formatDuration(s.Duration()),
			Rows:     s.RowsWritten(),
			Error:    s.Error,
		}
	}

	return json.Marshal(struct {
		RunID       string                  `json:"runId"`
		Success     bool                    `json:"success"`
		Duration    string                  `json:"duration"`
		Stages      []stageJSON             `json:"stages"`
		Intake      []model.IntakeSummary   `json:"intake,omitempty"`
		Cleaning    []model.CleaningSummary `json:"cleaning,omitempty"`
		Metrics     []model.TableSummary    `json:"metrics,omitempty"`
		DroppedRows int                     `json:"droppedRows"`
		Errors      map[ErrorCategory]int   `json:"errors,omitempty"`
	}{
		RunID:       rm.RunID,
		Success:     rm.Succeeded(),
		Duration:    formatDuration(rm.Duration()),
		Stages:      stages,
		Intake:      rm.Intake,
		Cleaning:    rm.Cleaning,
		Metrics:     rm.Metrics,
		DroppedRows: rm.DroppedRows(),
		Errors:      rm.ErrorCounts,
	})
}
