package jobs

import (
	"context"
	"log"
	"time"

	"minisocial-api/services"
)

// OrphanAuditJob periodically reports images no post or profile points at.
// It only logs; orphaned blobs are kept.
type OrphanAuditJob struct {
	auditService *services.BlobAuditService
	interval     time.Duration
	ticker       *time.Ticker
	done         chan struct{}
	lastCount    int
}

// NewOrphanAuditJob creates a new orphan audit job
func NewOrphanAuditJob(auditService *services.BlobAuditService, interval time.Duration) *OrphanAuditJob {
	return &OrphanAuditJob{
		auditService: auditService,
		interval:     interval,
		done:         make(chan struct{}),
	}
}

// Start begins the audit job
func (j *OrphanAuditJob) Start() {
	log.Println("Orphan audit job started")
	j.ticker = time.NewTicker(j.interval)

	go func() {
		// Run immediately on start
		j.audit()

		for {
			select {
			case <-j.ticker.C:
				j.audit()
			case <-j.done:
				log.Println("Orphan audit job stopped")
				return
			}
		}
	}()
}

// Stop stops the audit job
func (j *OrphanAuditJob) Stop() {
	j.ticker.Stop()
	close(j.done)
}

// audit performs one pass and returns the number of orphans found, or -1 on error.
func (j *OrphanAuditJob) audit() int {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	orphans, err := j.auditService.Orphans(ctx)
	if err != nil {
		log.Printf("Error during orphan audit: %v", err)
		return -1
	}

	if len(orphans) != j.lastCount {
		log.Printf("Orphan audit: %d unreferenced blobs", len(orphans))
	}
	j.lastCount = len(orphans)
	return len(orphans)
}
