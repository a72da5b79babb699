package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance-dashboard/config"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/internal/strategy"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"
)

type TaskExecutor interface {
	Execute(ctx context.Context, taskHistory *model.TaskExecutionHistory) error
}

type taskExecutor struct {
	cfg        *config.Config
	log        *logger.Logger
	jobRepo    repository.JobRepository
	strategies map[strategy.JobType]strategy.JobExecutionStrategy
}

func NewTaskExecutor(cfg *config.Config, log *logger.Logger, jobRepo repository.JobRepository, strategies map[strategy.JobType]strategy.JobExecutionStrategy) TaskExecutor {
	return &taskExecutor{
		cfg:        cfg,
		log:        log,
		jobRepo:    jobRepo,
		strategies: strategies,
	}
}

// Execute dispatches the job to the strategy registered for its type and stores the outcome on taskHistory.
func (t *taskExecutor) Execute(ctx context.Context, taskHistory *model.TaskExecutionHistory) error {
	t.log.InfoContext(ctx, "Processing job", logger.IntField("job_id", int(taskHistory.JobID)), logger.IntField("history_id", int(taskHistory.ID)))

	job, err := t.jobRepo.FindByID(ctx, taskHistory.JobID)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to find job", logger.ErrorField(err), logger.IntField("job_id", int(taskHistory.JobID)))
		taskHistory.Status = model.StatusFailed
		taskHistory.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		return t.finish(ctx, taskHistory)
	}

	executor := t.strategies[strategy.JobType(job.Type)]
	if executor == nil {
		t.log.ErrorContext(ctx, "Job type not found", logger.IntField("job_id", int(job.ID)), logger.StringField("job_type", job.Type))
		taskHistory.Status = model.StatusFailed
		taskHistory.ErrorMessage = sql.NullString{String: "job type not found", Valid: true}
		return t.finish(ctx, taskHistory)
	}

	result, err := executor.Execute(ctx, job)
	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		taskHistory.Status = model.StatusTimeout
		taskHistory.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	case err != nil:
		t.log.ErrorContext(ctx, "Failed to execute job", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		taskHistory.Status = model.StatusFailed
		taskHistory.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	default:
		taskHistory.Status = model.StatusCompleted
	}
	taskHistory.ExitCode = sql.NullInt32{Int32: result.ExitCode, Valid: true}
	taskHistory.Output = sql.NullString{String: result.Output, Valid: true}

	return t.finish(ctx, taskHistory)
}

func (t *taskExecutor) finish(ctx context.Context, taskHistory *model.TaskExecutionHistory) error {
	taskHistory.CompletedAt = sql.NullTime{Time: utils.TimeNow(), Valid: true}
	// the task context may already be expired here
	if err := t.jobRepo.UpdateTaskExecutionHistory(context.WithoutCancel(ctx), taskHistory); err != nil {
		t.log.ErrorContext(ctx, "Failed to update task execution history", logger.ErrorField(err), logger.IntField("job_id", int(taskHistory.JobID)))
		return fmt.Errorf("failed to update task execution history: %w", err)
	}
	return nil
}
