package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/observability"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

// Worker polls the ingest job queue and runs the pipeline for claimed jobs.
// Multiple workers can run against the same database; the claim query keeps
// them from stepping on each other.
type Worker struct {
	jobs      *repositories.IngestJobRepository
	papers    *repositories.PaperRepository
	processor *Processor
	prom      *observability.Prom

	pollInterval time.Duration
	visibility   time.Duration
	workerID     string
	logger       zerolog.Logger
}

// NewWorker creates a Worker identified by hostname and pid.
func NewWorker(
	repos *repositories.Repositories,
	processor *Processor,
	prom *observability.Prom,
	pollInterval, visibility time.Duration,
) *Worker {
	host, _ := os.Hostname()

	return &Worker{
		jobs:         repos.IngestJobRepository,
		papers:       repos.PaperRepository,
		processor:    processor,
		prom:         prom,
		pollInterval: pollInterval,
		visibility:   visibility,
		workerID:     fmt.Sprintf("%s-%d", host, os.Getpid()),
		logger:       logger.WithComponent("worker"),
	}
}

// Run polls until ctx is cancelled. Jobs left PROCESSING by a dead worker
// are requeued once on startup.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().
		Str("workerID", w.workerID).
		Dur("pollInterval", w.pollInterval).
		Msg("Ingest worker started")

	if _, err := w.jobs.RequeueStaleProcessing(ctx, w.visibility); err != nil {
		w.logger.Error().Err(err).Msg("Failed to requeue stale jobs")
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("workerID", w.workerID).Msg("Ingest worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain keeps claiming until the queue is empty or ctx is cancelled.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		processed, err := w.ProcessOne(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("Ingest job processing error")
			return
		}
		if !processed {
			return
		}
	}
}

// ProcessOne claims and processes a single job. The boolean reports whether
// a job was claimed at all.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNext(ctx, w.workerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	w.logger.Info().
		Str("jobID", job.ID.String()).
		Int64("paperID", job.PaperID).
		Int("attempt", job.Attempts+1).
		Msg("Claimed ingest job")

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	procErr := w.processor.Process(ctx, job.PaperID)
	duration := time.Since(start)

	if procErr == nil {
		if err := w.jobs.MarkDone(ctx, job.ID); err != nil {
			return true, err
		}
		w.prom.ObserveJob("done", duration)
		w.logger.Info().Str("jobID", job.ID.String()).Dur("took", duration).Msg("Ingest job done")
		return true, nil
	}

	w.handleFailure(ctx, job, procErr, duration)
	return true, nil
}

func (w *Worker) handleFailure(ctx context.Context, job *models.IngestJob, procErr error, duration time.Duration) {
	permanent := apperrors.Is(procErr, apperrors.ErrEmptyPaper,
		apperrors.ErrUnsupportedFile, apperrors.ErrPaperNotFound)

	if !permanent && job.Attempts+1 < job.MaxAttempts {
		delay := ExponentialBackoff(job.Attempts)
		if err := w.jobs.Reschedule(ctx, job.ID, time.Now().Add(delay), procErr.Error()); err != nil {
			w.logger.Error().Err(err).Str("jobID", job.ID.String()).Msg("Failed to reschedule job")
			return
		}
		w.prom.ObserveJob("retry", duration)
		w.logger.Warn().
			Err(procErr).
			Str("jobID", job.ID.String()).
			Dur("retryIn", delay).
			Msg("Ingest job failed, rescheduled")
		return
	}

	if err := w.jobs.MarkFailed(ctx, job.ID, procErr.Error()); err != nil {
		w.logger.Error().Err(err).Str("jobID", job.ID.String()).Msg("Failed to mark job failed")
	}
	if err := w.papers.MarkFailed(ctx, job.PaperID, procErr.Error()); err != nil {
		w.logger.Error().Err(err).Int64("paperID", job.PaperID).Msg("Failed to mark paper failed")
	}
	w.prom.ObserveJob("failed", duration)
	w.logger.Error().
		Err(procErr).
		Str("jobID", job.ID.String()).
		Int64("paperID", job.PaperID).
		Msg("Ingest job failed terminally")
}

// ExponentialBackoff returns the delay before retry number attempt+1.
// Small jitter spreads retries from concurrent workers.
func ExponentialBackoff(attempt int) time.Duration {
	base := 10 * time.Second
	capDelay := 10 * time.Minute

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > capDelay {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
