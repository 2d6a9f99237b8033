package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

const ingestJobColumns = "id, paper_id, status, attempts, max_attempts, run_at, locked_at, locked_by, last_error, created_at, updated_at"

// IngestJobRepository handles the ingest job queue. Claims go through
// FOR UPDATE SKIP LOCKED so concurrent workers never double-process a paper.
type IngestJobRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewIngestJobRepository creates a new IngestJobRepository
func NewIngestJobRepository(db *pgxpool.Pool) *IngestJobRepository {
	return &IngestJobRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Enqueue creates a PENDING job for a paper and returns it
func (r *IngestJobRepository) Enqueue(ctx context.Context, paperID int64, maxAttempts int) (*models.IngestJob, error) {
	id := uuid.New()

	sql, args, err := r.sb.Insert("ingest_jobs").
		Columns("id", "paper_id", "status", "attempts", "max_attempts", "run_at").
		Values(id, paperID, models.JobStatusPending, 0, maxAttempts, time.Now()).
		Suffix("RETURNING " + ingestJobColumns).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build enqueue job query: %w", err)
	}

	job, err := scanIngestJob(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("paperID", paperID).Msg("Error enqueueing ingest job")
		return nil, fmt.Errorf("error enqueueing ingest job: %w", err)
	}

	logger.Info().Str("jobID", job.ID.String()).Int64("paperID", paperID).Msg("Enqueued ingest job")
	return job, nil
}

// ClaimNext atomically claims the oldest runnable job for a worker.
// Returns apperrors.ErrJobNotFound when the queue is empty.
func (r *IngestJobRepository) ClaimNext(ctx context.Context, workerID string) (*models.IngestJob, error) {
	query := `
		WITH next AS (
			SELECT id FROM ingest_jobs
			WHERE status = 'PENDING' AND run_at <= NOW() AND attempts < max_attempts
			ORDER BY run_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE ingest_jobs j
		SET status = 'PROCESSING', locked_at = NOW(), locked_by = $1, updated_at = NOW()
		FROM next
		WHERE j.id = next.id
		RETURNING j.id, j.paper_id, j.status, j.attempts, j.max_attempts, j.run_at,
			j.locked_at, j.locked_by, j.last_error, j.created_at, j.updated_at`

	job, err := scanIngestJob(r.db.QueryRow(ctx, query, workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrJobNotFound
		}
		logger.Error().Err(err).Str("workerID", workerID).Msg("Error claiming ingest job")
		return nil, fmt.Errorf("error claiming ingest job: %w", err)
	}

	return job, nil
}

// GetByID retrieves a job by ID
func (r *IngestJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestJob, error) {
	sql, args, err := r.sb.Select(ingestJobColumns).
		From("ingest_jobs").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get job query: %w", err)
	}

	job, err := scanIngestJob(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrJobNotFound
		}
		logger.Error().Err(err).Str("jobID", id.String()).Msg("Error scanning ingest job row")
		return nil, fmt.Errorf("error retrieving ingest job: %w", err)
	}

	return job, nil
}

// GetByPaperID retrieves the most recent job for a paper
func (r *IngestJobRepository) GetByPaperID(ctx context.Context, paperID int64) (*models.IngestJob, error) {
	sql, args, err := r.sb.Select(ingestJobColumns).
		From("ingest_jobs").
		Where(squirrel.Eq{"paper_id": paperID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("failed to build get job by paper query: %w", err)
	}

	job, err := scanIngestJob(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, fmt.Errorf("error retrieving ingest job: %w", err)
	}

	return job, nil
}

// MarkDone completes a job and releases its lock
func (r *IngestJobRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	return r.finish(ctx, id, models.JobStatusDone, nil)
}

// MarkFailed terminally fails a job and records the reason
func (r *IngestJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.finish(ctx, id, models.JobStatusFailed, &reason)
}

func (r *IngestJobRepository) finish(ctx context.Context, id uuid.UUID, status models.JobStatus, lastError *string) error {
	sql, args, err := r.sb.Update("ingest_jobs").
		Set("status", status).
		Set("locked_at", nil).
		Set("locked_by", nil).
		Set("last_error", helpers.GetNullString(lastError)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build finish job query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("jobID", id.String()).Msg("Error finishing ingest job")
		return fmt.Errorf("error finishing ingest job: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrJobNotFound
	}

	return nil
}

// Reschedule returns a failed attempt to the queue with a later run time
func (r *IngestJobRepository) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, reason string) error {
	sql, args, err := r.sb.Update("ingest_jobs").
		Set("status", models.JobStatusPending).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("run_at", runAt).
		Set("locked_at", nil).
		Set("locked_by", nil).
		Set("last_error", reason).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build reschedule job query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("jobID", id.String()).Msg("Error rescheduling ingest job")
		return fmt.Errorf("error rescheduling ingest job: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrJobNotFound
	}

	return nil
}

// RequeueStaleProcessing returns jobs whose worker died mid-claim to the
// queue. A job counts as stale once locked_at is older than the visibility
// timeout.
func (r *IngestJobRepository) RequeueStaleProcessing(ctx context.Context, visibility time.Duration) (int64, error) {
	query := `
		UPDATE ingest_jobs
		SET status = 'PENDING', locked_at = NULL, locked_by = NULL, updated_at = NOW()
		WHERE status = 'PROCESSING' AND locked_at < NOW() - ($1 * INTERVAL '1 second')`

	cmdTag, err := r.db.Exec(ctx, query, int64(visibility.Seconds()))
	if err != nil {
		logger.Error().Err(err).Msg("Error requeueing stale ingest jobs")
		return 0, fmt.Errorf("error requeueing stale jobs: %w", err)
	}

	requeued := cmdTag.RowsAffected()
	if requeued > 0 {
		logger.Warn().Int64("requeued", requeued).Msg("Requeued stale processing jobs")
	}

	return requeued, nil
}

func scanIngestJob(row pgx.Row) (*models.IngestJob, error) {
	job := &models.IngestJob{}
	var lockedAt *time.Time
	var lockedBy, lastError sql.NullString

	err := row.Scan(
		&job.ID, &job.PaperID, &job.Status, &job.Attempts, &job.MaxAttempts,
		&job.RunAt, &lockedAt, &lockedBy, &lastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.LockedAt = lockedAt
	job.LockedBy = helpers.NullStringPtr(lockedBy)
	job.LastError = helpers.NullStringPtr(lastError)

	return job, nil
}
