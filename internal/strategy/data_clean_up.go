package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"
)

const defaultRetentionDays = 30

type TaskHistoryCleaner interface {
	DeleteTaskHistoryOlderThan(ctx context.Context, date time.Time, opts ...utils.DBOption) (int64, error)
}

type RememberTokenCleaner interface {
	ClearExpiredRememberTokens(ctx context.Context, before time.Time, opts ...utils.DBOption) (int64, error)
}

type LimiterCleaner interface {
	CleanupLimiters(maxIdle time.Duration) int
}

type DataCleanUpPayload struct {
	RetentionDays int `json:"retention_days"`
}

type DataCleanUpResult struct {
	Table string `json:"table"`
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

type DataCleanUpStrategy struct {
	cfg      *config.Config
	log      *logger.Logger
	history  TaskHistoryCleaner
	tokens   RememberTokenCleaner
	limiters LimiterCleaner
}

func NewDataCleanUpStrategy(cfg *config.Config, log *logger.Logger, history TaskHistoryCleaner, tokens RememberTokenCleaner, limiters LimiterCleaner) JobExecutionStrategy {
	return &DataCleanUpStrategy{
		cfg:      cfg,
		log:      log,
		history:  history,
		tokens:   tokens,
		limiters: limiters,
	}
}

func (s *DataCleanUpStrategy) GetType() JobType {
	return JobTypeDataCleanUp
}

// Execute removes task history older than the retention window and clears expired remember tokens.
func (s *DataCleanUpStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	s.log.InfoContext(ctx, "Starting data clean up")

	var payload DataCleanUpPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
			return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
		}
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultRetentionDays
	}

	now := utils.TimeNow()
	cutoff := now.AddDate(0, 0, -payload.RetentionDays)
	results := make([]DataCleanUpResult, 0, 3)
	failed := 0

	deleted, err := s.history.DeleteTaskHistoryOlderThan(ctx, cutoff)
	results = append(results, s.result("task_execution_history", deleted, err))
	if err != nil {
		failed++
	}

	cleared, err := s.tokens.ClearExpiredRememberTokens(ctx, now)
	results = append(results, s.result("users.remember_token", cleared, err))
	if err != nil {
		failed++
	}

	if s.limiters != nil {
		removed := s.limiters.CleanupLimiters(time.Duration(payload.RetentionDays) * 24 * time.Hour)
		results = append(results, DataCleanUpResult{Table: "advice_limiters", Total: int64(removed)})
	}

	res, err := json.Marshal(results)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to marshal output message", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}
	if failed == 2 {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: string(res)}, fmt.Errorf("data clean up failed")
	}
	if failed > 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_PARTIAL_SUCCESS, Output: string(res)}, nil
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: string(res)}, nil
}

func (s *DataCleanUpStrategy) result(table string, total int64, err error) DataCleanUpResult {
	if err != nil {
		s.log.Error("Failed to clean up table", logger.ErrorField(err), logger.StringField("table", table))
		return DataCleanUpResult{Table: table, Total: total, Error: err.Error()}
	}
	return DataCleanUpResult{Table: table, Total: total}
}
