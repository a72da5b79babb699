package strategy

import (
	"context"

	"finance-dashboard/internal/model"
)

const (
	JOB_EXIT_CODE_SUCCESS         = 200
	JOB_EXIT_CODE_FAILED          = 500
	JOB_EXIT_CODE_SKIPPED         = 204
	JOB_EXIT_CODE_PARTIAL_SUCCESS = 206
)

type JobType string

const (
	JobTypeAlertCheck  JobType = "alert_check"
	JobTypeNewsRefresh JobType = "news_refresh"
	JobTypeDataCleanUp JobType = "data_clean_up"
)

type JobResult struct {
	ExitCode int32  `json:"exit_code"`
	Output   string `json:"output"`
}

// JobExecutionStrategy runs one type of scheduled job.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *model.Job) (JobResult, error)
	GetType() JobType
}

// Register indexes strategies by the job type they handle.
func Register(strategies ...JobExecutionStrategy) map[JobType]JobExecutionStrategy {
	m := make(map[JobType]JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		m[s.GetType()] = s
	}
	return m
}

func exitCodeFor(total, failed int) int32 {
	switch {
	case total == 0:
		return JOB_EXIT_CODE_SKIPPED
	case failed == 0:
		return JOB_EXIT_CODE_SUCCESS
	case failed < total:
		return JOB_EXIT_CODE_PARTIAL_SUCCESS
	default:
		return JOB_EXIT_CODE_FAILED
	}
}
