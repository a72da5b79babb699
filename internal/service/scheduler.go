package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/robfig/cron/v3"
)

type SchedulerService interface {
	Execute(ctx context.Context) error
	GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error)
	RunJobTask(ctx context.Context, jobID uint) error
	Start(ctx context.Context)
	Wait()
}

type schedulerService struct {
	cfg          *config.Config
	log          *logger.Logger
	cronParser   cron.Parser
	jobRepo      repository.JobRepository
	taskExecutor TaskExecutor
	semaphore    chan struct{}
	running      sync.WaitGroup
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.JobRepository,
	taskExecutor TaskExecutor,
) SchedulerService {
	return &schedulerService{
		cfg:          cfg,
		log:          log,
		jobRepo:      jobRepo,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		taskExecutor: taskExecutor,
		semaphore:    make(chan struct{}, max(cfg.Scheduler.MaxConcurrency, 1)),
	}
}

// Start runs a scheduler pass every tick interval until ctx is done.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Scheduler.TickInterval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "Scheduler started", logger.StringField("tick_interval", s.cfg.Scheduler.TickInterval.String()))
	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Execute(ctx); err != nil {
				s.log.ErrorContext(ctx, "Scheduler pass failed", logger.ErrorField(err))
			}
		}
	}
}

// Wait blocks until every task started by the scheduler has finished.
func (s *schedulerService) Wait() {
	s.running.Wait()
}

// Execute runs one pass: every due schedule is dispatched and its next execution recorded.
func (s *schedulerService) Execute(ctx context.Context) error {
	schedules, err := s.jobRepo.FindJobsToSchedule(ctx, utils.TimeNow(), utils.WithPreload("Job"))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find jobs to schedule", logger.ErrorField(err))
		return fmt.Errorf("failed to find jobs to schedule: %w", err)
	}

	if len(schedules) == 0 {
		s.log.DebugContext(ctx, "No jobs to schedule")
		return nil
	}
	s.log.InfoContext(ctx, "Start running jobs",
		logger.IntField("job_count", len(schedules)),
		logger.IntField("max_concurrency", cap(s.semaphore)),
	)

	for i := range schedules {
		if !utils.ShouldContinue(ctx, s.log) {
			return nil
		}

		task := schedules[i]
		if err := s.executeJob(ctx, &task.Job, &task); err != nil {
			s.log.ErrorContextWithAlert(ctx, "Failed to execute job",
				logger.ErrorField(err),
				logger.IntField("job_id", int(task.JobID)),
				logger.IntField("schedule_id", int(task.ID)),
				logger.StringField("job_name", task.Job.Name),
				logger.StringField("job_type", task.Job.Type),
			)
		}
	}

	return nil
}

// executeJob records a running history row and hands the job to a worker. When task is
// non-nil its next execution is advanced from the cron expression.
func (s *schedulerService) executeJob(ctx context.Context, job *model.Job, task *model.TaskSchedule) error {
	now := utils.TimeNow()
	history := &model.TaskExecutionHistory{
		JobID:     job.ID,
		Status:    model.StatusRunning,
		StartedAt: now,
	}
	if task != nil {
		history.ScheduleID = task.ID
	}

	if err := s.jobRepo.CreateTaskExecutionHistory(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to create task history", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		return fmt.Errorf("failed to create task history: %w", err)
	}

	s.log.DebugContext(ctx, "Executing job",
		logger.IntField("job_id", int(job.ID)),
		logger.StringField("job_name", job.Name),
		logger.StringField("job_type", job.Type),
		logger.IntField("timeout", job.Timeout),
		logger.IntField("active_concurrency", len(s.semaphore)),
	)

	timeout := time.Duration(job.Timeout) * time.Second
	if timeout <= 0 {
		timeout = s.cfg.Scheduler.TimeoutDuration
	}

	s.semaphore <- struct{}{}
	s.running.Add(1)
	utils.GoSafe(func() {
		defer s.running.Done()
		defer func() { <-s.semaphore }()

		taskCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.taskExecutor.Execute(taskCtx, history); err != nil {
			s.log.ErrorContextWithAlert(taskCtx, "Failed to execute task", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
		}
	})

	if task == nil {
		return nil
	}

	cronSchedule, err := s.cronParser.Parse(task.CronExpression)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to parse cron expression", logger.ErrorField(err), logger.IntField("schedule_id", int(task.ID)))
		return fmt.Errorf("failed to parse cron expression: %w", err)
	}

	task.LastExecution = sql.NullTime{Time: now, Valid: true}
	task.NextExecution = sql.NullTime{Time: cronSchedule.Next(now), Valid: true}

	if err := s.jobRepo.UpdateTaskSchedule(ctx, task); err != nil {
		s.log.ErrorContext(ctx, "Failed to update task schedule", logger.ErrorField(err), logger.IntField("schedule_id", int(task.ID)))
		return fmt.Errorf("failed to update task schedule: %w", err)
	}
	return nil
}

func (s *schedulerService) GetJobSchedule(ctx context.Context, param model.GetJobParam) ([]model.Job, error) {
	jobs, err := s.jobRepo.Get(ctx, &param)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get jobs", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}
	return jobs, nil
}

// RunJobTask runs one job immediately without moving its schedule.
func (s *schedulerService) RunJobTask(ctx context.Context, jobID uint) error {
	s.log.InfoContext(ctx, "Running job task", logger.IntField("job_id", int(jobID)))
	jobs, err := s.jobRepo.Get(ctx, &model.GetJobParam{IDs: []uint{jobID}})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find job", logger.ErrorField(err), logger.IntField("job_id", int(jobID)))
		return fmt.Errorf("failed to find job: %w", err)
	}
	if len(jobs) == 0 {
		return dto.ErrNotFound
	}

	return s.executeJob(ctx, &jobs[0], nil)
}
