package storage

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SuggestionRefresher periodically re-materializes the suggestion_terms
// table so prefix lookups stay a cheap indexed read as the corpus grows.
type SuggestionRefresher struct {
	store *Store
	cache *SuggestionCache
	cron  *cron.Cron
	log   *logrus.Logger
}

// NewSuggestionRefresher creates a refresher. cache may be nil.
func NewSuggestionRefresher(store *Store, cache *SuggestionCache, log *logrus.Logger) *SuggestionRefresher {
	if log == nil {
		log = logrus.New()
	}
	return &SuggestionRefresher{
		store: store,
		cache: cache,
		cron:  cron.New(),
		log:   log,
	}
}

// Start runs one immediate refresh, then schedules refreshes at the given
// interval.
func (r *SuggestionRefresher) Start(interval time.Duration) error {
	r.refresh()

	_, err := r.cron.AddFunc("@every "+interval.String(), r.refresh)
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *SuggestionRefresher) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *SuggestionRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	if err := r.store.RefreshSuggestionTerms(ctx); err != nil {
		r.log.WithError(err).Error("suggestion term refresh failed")
		return
	}
	if r.cache != nil {
		r.cache.Purge()
	}
	r.log.WithFields(logrus.Fields{
		"duration": time.Since(start).String(),
	}).Info("suggestion terms refreshed")
}
