// Package monitoring runs the service's background maintenance.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/codeshot-be/internal/config"
	"github.com/isdelr/codeshot-be/internal/metrics"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/isdelr/codeshot-be/internal/services"
	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Pruner is the part of storage.ImageStore the janitor needs.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// Janitor deletes stored images once they are older than the retention period.
type Janitor struct {
	store     Pruner
	eventSvc  services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
	done      chan struct{}
}

// NewJanitor creates a janitor that runs on cfg.JanitorSchedule.
func NewJanitor(cfg *config.Config, store Pruner, eventSvc services.EventServiceProvider) (*Janitor, error) {
	schedule, err := cron.ParseStandard(cfg.JanitorSchedule)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parse janitor schedule %q", cfg.JanitorSchedule)
	}
	return &Janitor{
		store:     store,
		eventSvc:  eventSvc,
		schedule:  schedule,
		retention: cfg.ImageRetention,
		timeout:   5 * time.Minute,
		now:       time.Now,
		done:      make(chan struct{}),
	}, nil
}

// Run blocks, pruning on every tick of the schedule until Stop is called.
func (j *Janitor) Run() {
	log.Info().Dur("retention", j.retention).Msg("Starting image retention janitor...")
	for {
		wait := j.schedule.Next(j.now()).Sub(j.now())
		timer := time.NewTimer(wait)

		select {
		case <-j.done:
			timer.Stop()
			log.Info().Msg("Stopping image retention janitor.")
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
			j.prune(ctx)
			cancel()
		}
	}
}

// Stop halts the janitor. It must be called at most once.
func (j *Janitor) Stop() {
	close(j.done)
}

func (j *Janitor) prune(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.retention)
	removed, err := j.store.Prune(ctx, cutoff)
	if removed > 0 {
		metrics.ImagesPruned.Add(float64(removed))
	}
	if err != nil {
		log.Error().Err(err).Int("removed", removed).Msg("Janitor: failed to prune images")
		j.record(ctx, "error", fmt.Sprintf("Image pruning failed after %d deletions: %v", removed, err))
		return removed, err
	}

	log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("Janitor: pruned images")
	if removed > 0 {
		j.record(ctx, "info", fmt.Sprintf("Pruned %d images older than %s", removed, j.retention))
	}
	return removed, nil
}

func (j *Janitor) record(ctx context.Context, level, msg string) {
	if j.eventSvc == nil {
		return
	}
	if err := j.eventSvc.CreateEvent(ctx, models.EventImagesPruned, level, msg, nil); err != nil {
		log.Warn().Err(err).Msg("Janitor: failed to record event")
	}
}
