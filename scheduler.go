package labops

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// standard 5-field expressions plus descriptors like @hourly
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var scheduledKinds = []EntityKind{EntityKindSample, EntityKindPool, EntityKindMicrobialSample}

type Scheduler interface {
	Start()
	Stop()
	// RunTransfers transfers every stage of every entity kind once.
	RunTransfers(ctx context.Context) error
}

type scheduler struct {
	cron            *cron.Cron
	transferService TransferService
	metrics         *Metrics
	logger          zerolog.Logger
}

func NewScheduler(ctx context.Context, schedule string, transferService TransferService, metrics *Metrics, logger zerolog.Logger) (Scheduler, error) {
	s := &scheduler{
		transferService: transferService,
		metrics:         metrics,
		logger:          logger,
	}
	cronLog := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	_, err := s.cron.AddFunc(schedule, func() {
		_ = s.RunTransfers(ctx)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid transfer schedule %q", schedule)
	}
	return s, nil
}

func (s *scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *scheduler) RunTransfers(ctx context.Context) error {
	failed := 0
	var firstErr error
	for _, kind := range scheduledKinds {
		for _, stage := range TransferStages(kind) {
			job := fmt.Sprintf("transfer-%s-%s", kind, stage)
			report, err := s.transferService.Transfer(ctx, kind, stage, IncludeUnset)
			s.metrics.ObserveTransfer(report)
			s.metrics.ObserveScheduledRun(job, err)
			if err != nil {
				s.logger.Error().Err(err).Str("job", job).Msg("scheduled transfer failed")
				failed++
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	if firstErr != nil {
		return errors.Wrapf(firstErr, "%d scheduled transfer(s) failed", failed)
	}
	return nil
}

// cronLogger routes the cron library's own messages to zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
