package sqlite

import (
	"context"
	"database/sql"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
)

type statusHistoryRepository struct {
	db *sql.DB
}

// NewStatusHistoryRepository returns a SQLite-backed implementation.
func NewStatusHistoryRepository(db *sql.DB) repository.StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]domain.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, report_id, changed_by, old_status, new_status, created_at
        FROM report_status_changes WHERE report_id = ?
        ORDER BY created_at ASC, id`, reportID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	changes := []domain.StatusChange{}
	for rows.Next() {
		var (
			change               domain.StatusChange
			oldStatus, newStatus string
			created              string
		)
		if err := rows.Scan(&change.ID, &change.ReportID, &change.ChangedBy, &oldStatus, &newStatus, &created); err != nil {
			return nil, err
		}
		change.OldStatus = domain.ReportStatus(oldStatus)
		change.NewStatus = domain.ReportStatus(newStatus)
		if change.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}
