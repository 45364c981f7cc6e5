package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
)

// StatusHistoryRepository reads the status audit trail. Entries are written
// by ReportRepository.UpdateStatus.
type StatusHistoryRepository interface {
	ListByReport(ctx context.Context, reportID string) ([]domain.StatusChange, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository constructs history repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, report_id, changed_by, old_status, new_status, created_at
        FROM report_status_changes WHERE report_id=$1
        ORDER BY created_at ASC, id`
	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	changes := []domain.StatusChange{}
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.ReportID,
			&change.ChangedBy,
			&change.OldStatus,
			&change.NewStatus,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, translatePgError(rows.Err())
}
