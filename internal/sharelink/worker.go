package sharelink

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// PurgeWorker periodically deletes links whose expiry is far enough in the
// past. Expired links keep denying access the moment they expire; the worker
// only reclaims the rows after the retention window.
type PurgeWorker struct {
	service   *Service
	interval  time.Duration
	retention time.Duration
	done      chan struct{}
	stopOnce  sync.Once
}

func NewPurgeWorker(service *Service, interval, retention time.Duration) *PurgeWorker {
	return &PurgeWorker{
		service:   service,
		interval:  interval,
		retention: retention,
		done:      make(chan struct{}),
	}
}

func (w *PurgeWorker) Start(ctx context.Context) {
	w.purge(ctx)

	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.purge(ctx)
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}()

	log.Info().
		Dur("interval", w.interval).
		Dur("retention", w.retention).
		Msg("started expired link purge worker")
}

// Stop shuts the worker down; safe to call more than once.
func (w *PurgeWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *PurgeWorker) purge(ctx context.Context) {
	removed, err := w.service.PurgeExpired(ctx, w.retention)
	if err != nil {
		log.Error().Err(err).Msg("error purging expired links")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("purged expired links")
	}
}
