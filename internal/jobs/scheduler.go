package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/parkcheep/parkcheep-bot/pkg/config"
)

// Scheduler registers the periodic maintenance tasks.
type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	cfg            config.Config
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, cfg config.Config, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		cfg:            cfg,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	refresh, err := NewCarparkRefreshTask(s.cfg.Parking.DatasetPath)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.cfg.Jobs.RefreshSchedule, refresh); err != nil {
		return err
	}

	cleanup, err := NewStateCleanupTask(24 * time.Hour)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.cfg.Jobs.CleanupSchedule, cleanup); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered maintenance tasks")

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
