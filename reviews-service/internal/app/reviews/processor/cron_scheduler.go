package processor

import (
	"context"

	"coffeecompanion/pkg/logger"

	"github.com/robfig/cron/v3"
)

// AggregateReconciler пересчитывает агрегаты всех товаров с оценками
type AggregateReconciler interface {
	ReconcileAll(ctx context.Context) error
}

// CronScheduler периодически сверяет все агрегаты рейтинга со строками
// оценок. Починка для агрегатов, отставших от строк или записанных
// старыми клиентами мимо пересчета.
type CronScheduler struct {
	cron         *cron.Cron
	aggregateSvc AggregateReconciler
}

func NewCronScheduler(aggregateSvc AggregateReconciler) *CronScheduler {
	return &CronScheduler{
		cron:         cron.New(),
		aggregateSvc: aggregateSvc,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: reconciling rating aggregates")

		if err := s.aggregateSvc.ReconcileAll(ctx); err != nil {
			logger.Error().Err(err).Msg("Aggregate reconciliation failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
