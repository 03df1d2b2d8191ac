package assets

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portfolio/api/internal/store"
)

const maxBackoff = 24 * time.Hour

// Destroyer deletes a remote asset by public id.
type Destroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

// Outbox persists assets whose remote delete has not succeeded yet.
type Outbox interface {
	EnqueueAssetDeletion(ctx context.Context, publicID, reason, lastError string) error
	ListPendingAssetDeletions(ctx context.Context, dueBefore time.Time, limit int) ([]store.PendingAssetDeletion, error)
	RecordAssetDeletionFailure(ctx context.Context, publicID, lastError string, nextAttemptAt time.Time) error
	CompleteAssetDeletion(ctx context.Context, publicID string) error
	AssetInUse(ctx context.Context, publicID string) (bool, error)
}

type SweepResult struct {
	Attempted int `json:"attempted"`
	Deleted   int `json:"deleted"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Janitor releases remote assets once the rows that referenced them are gone.
// A nil Destroyer means no asset store is configured; releases then go
// straight to the outbox.
type Janitor struct {
	remote  Destroyer
	outbox  Outbox
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
	pending sync.WaitGroup
}

func NewJanitor(remote Destroyer, outbox Outbox, logger zerolog.Logger) *Janitor {
	return &Janitor{
		remote:  remote,
		outbox:  outbox,
		logger:  logger,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// Release deletes every non-empty public id in the background and returns at
// once. It never fails: a failed delete is logged and queued for the sweeper.
// Ids still referenced by another row are kept.
func (j *Janitor) Release(ctx context.Context, reason string, publicIDs ...string) {
	ids := make([]string, 0, len(publicIDs))
	for _, publicID := range publicIDs {
		if publicID != "" {
			ids = append(ids, publicID)
		}
	}
	if len(ids) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	j.pending.Add(1)
	go func() {
		defer j.pending.Done()
		for _, publicID := range ids {
			j.release(ctx, reason, publicID)
		}
	}()
}

// Wait blocks until in-flight releases finish or ctx is done.
func (j *Janitor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		j.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Janitor) release(ctx context.Context, reason, publicID string) {
	log := j.logger.With().Str("public_id", publicID).Str("reason", reason).Logger()

	inUse, err := j.outbox.AssetInUse(ctx, publicID)
	if err != nil {
		log.Warn().Err(err).Msg("asset reference check failed, queued for retry")
		j.enqueue(ctx, log, publicID, reason, err)
		return
	}
	if inUse {
		log.Info().Msg("asset still referenced, kept")
		return
	}

	if err := j.destroy(ctx, publicID); err != nil {
		log.Warn().Err(err).Msg("asset release failed, queued for retry")
		j.enqueue(ctx, log, publicID, reason, err)
		return
	}
	log.Info().Msg("asset released")
}

func (j *Janitor) enqueue(ctx context.Context, log zerolog.Logger, publicID, reason string, cause error) {
	if err := j.outbox.EnqueueAssetDeletion(ctx, publicID, reason, cause.Error()); err != nil {
		log.Error().Err(err).Msg("asset deletion could not be queued")
	}
}

// Sweep retries due outbox rows. Rows whose asset is referenced again are
// dropped without touching the bucket.
func (j *Janitor) Sweep(ctx context.Context, limit int) (SweepResult, error) {
	var result SweepResult
	due, err := j.outbox.ListPendingAssetDeletions(ctx, j.now(), limit)
	if err != nil {
		return result, err
	}

	for _, item := range due {
		result.Attempted++

		inUse, err := j.outbox.AssetInUse(ctx, item.PublicID)
		if err != nil {
			return result, err
		}
		if inUse {
			if err := j.outbox.CompleteAssetDeletion(ctx, item.PublicID); err != nil {
				return result, err
			}
			result.Skipped++
			continue
		}

		if derr := j.destroy(ctx, item.PublicID); derr != nil {
			next := j.now().Add(Backoff(item.Attempts + 1))
			if err := j.outbox.RecordAssetDeletionFailure(ctx, item.PublicID, derr.Error(), next); err != nil {
				return result, err
			}
			j.logger.Warn().Err(derr).Str("public_id", item.PublicID).Int("attempts", item.Attempts+1).
				Time("next_attempt_at", next).Msg("asset retry failed")
			result.Failed++
			continue
		}

		if err := j.outbox.CompleteAssetDeletion(ctx, item.PublicID); err != nil {
			return result, err
		}
		result.Deleted++
	}
	return result, nil
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := j.Sweep(ctx, 100)
			if err != nil {
				j.logger.Error().Err(err).Msg("asset sweep failed")
				continue
			}
			if result.Attempted > 0 {
				j.logger.Info().Int("deleted", result.Deleted).Int("failed", result.Failed).
					Int("skipped", result.Skipped).Msg("asset sweep finished")
			}
		}
	}
}

// Backoff is min(2^attempts minutes, 24h).
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= 11 {
		return maxBackoff
	}
	delay := time.Duration(1<<attempts) * time.Minute
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

func (j *Janitor) destroy(ctx context.Context, publicID string) error {
	if j.remote == nil {
		return errAssetsNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.remote.Destroy(ctx, publicID)
}
