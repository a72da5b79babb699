package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"finance-dashboard/config"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"
)

type NewsWarmer interface {
	WarmNews(ctx context.Context, limit int) (int, error)
}

type NewsRefreshPayload struct {
	Limit int `json:"limit"`
}

type NewsRefreshStrategy struct {
	cfg    *config.Config
	log    *logger.Logger
	warmer NewsWarmer
}

func NewNewsRefreshStrategy(cfg *config.Config, log *logger.Logger, warmer NewsWarmer) JobExecutionStrategy {
	return &NewsRefreshStrategy{cfg: cfg, log: log, warmer: warmer}
}

func (s *NewsRefreshStrategy) GetType() JobType {
	return JobTypeNewsRefresh
}

func (s *NewsRefreshStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	var payload NewsRefreshPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
			return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
		}
	}

	count, err := s.warmer.WarmNews(ctx, payload.Limit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to refresh news", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to refresh news: %v", err)}, err
	}
	if count == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no headlines available"}, nil
	}
	return JobResult{ExitCode: JOB_EXIT_CODE_SUCCESS, Output: fmt.Sprintf(`{"headlines":%d}`, count)}, nil
}
