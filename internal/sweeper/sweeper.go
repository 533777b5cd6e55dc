// Package sweeper deletes expired jobs. The ledger core never deletes
// records; it only stamps an expiration timestamp at creation, and this
// loop is the passive deletion behind it.
package sweeper

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wind-walker-open-source/forge-ledger/internal/models"
)

// ExpiryRepoInterface is the slice of the repository the sweeper needs.
type ExpiryRepoInterface interface {
	ListExpiredJobs(ctx context.Context, before time.Time, limit int) ([]models.Job, error)
	PurgeJob(ctx context.Context, jobID string) error
}

type Sweeper struct {
	repo      ExpiryRepoInterface
	interval  time.Duration
	batchSize int
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSweeper(repo ExpiryRepoInterface, interval time.Duration, batchSize int) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		repo:      repo,
		interval:  interval,
		batchSize: batchSize,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.SweepOnce(s.ctx); n > 0 {
				log.Printf("[sweeper] purged %d expired jobs", n)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// SweepOnce purges at most one batch of expired jobs and reports how many
// were removed. Purge failures are logged and skipped; the next sweep
// picks them up again.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	expired, err := s.repo.ListExpiredJobs(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		log.Printf("[sweeper] listing expired jobs failed: %v", err)
		return 0
	}

	purged := 0
	for _, job := range expired {
		if err := s.repo.PurgeJob(ctx, job.ID); err != nil {
			log.Printf("[sweeper] purging job %s failed: %v", job.ID, err)
			continue
		}
		purged++
	}
	return purged
}

func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
}
