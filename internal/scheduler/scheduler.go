package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/tidyhost/tidyhost/pkg/calsync"
)

// Scheduler drives the recurring calendar sync pass. The sync service itself
// is stateless per invocation and does not care what triggered it.
type Scheduler struct {
	cron     *cron.Cron
	service  *calsync.Service
	interval string
}

func New(service *calsync.Service, interval string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		service:  service,
		interval: interval,
	}
}

// Start registers the recurring sync and begins the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.interval, func() {
		ctx := context.Background()
		summaries, err := s.service.SyncAllLinked(ctx)
		if err != nil {
			log.Errorf("scheduled calendar sync pass failed: %v", err)
			return
		}
		var created, updated, deleted, failed int
		for _, summary := range summaries {
			created += summary.Created
			updated += summary.Updated
			deleted += summary.Deleted
			if !summary.Success {
				failed++
			}
		}
		log.Infof("scheduled calendar sync pass: %d properties, %d created, %d updated, %d deleted, %d failed",
			len(summaries), created, updated, deleted, failed)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Infof("calendar sync scheduler started (%s)", s.interval)
	return nil
}

// Stop halts the cron loop; a pass already running completes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
