package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"returns-service/internal/services"
)

// ExpiryJob auto-approves pending return requests whose shop response
// deadline has passed. Runs only when AUTO_APPROVE_EXPIRED is enabled.
type ExpiryJob struct {
	service   *services.ReturnService
	logger    *logrus.Logger
	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
}

// NewExpiryJob creates a new expiry sweep job
func NewExpiryJob(service *services.ReturnService, logger *logrus.Logger, interval time.Duration, batchSize int) *ExpiryJob {
	return &ExpiryJob{
		service:   service,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the expiry sweep loop
func (j *ExpiryJob) Start(ctx context.Context) {
	j.logger.Info("Expiry sweep started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.runSweep(ctx)
		case <-j.stopCh:
			j.logger.Info("Expiry sweep stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Expiry sweep context cancelled")
			return
		}
	}
}

// Stop signals the job to stop
func (j *ExpiryJob) Stop() {
	close(j.stopCh)
}

func (j *ExpiryJob) runSweep(ctx context.Context) {
	j.logger.Debug("Running expiry sweep...")

	approved, err := j.service.AutoApproveExpired(ctx, j.batchSize)
	if err != nil {
		j.logger.Errorf("Expiry sweep failed: %v", err)
		return
	}

	if approved > 0 {
		j.logger.Infof("Auto-approved %d expired return requests", approved)
	}
}
