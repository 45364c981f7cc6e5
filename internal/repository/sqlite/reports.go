package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/repository"
)

const reportColumns = `id, custom_id, title, description, report_type, incident_category, status,
        location, image, analysis_title, analysis_description, analysis_report_type, analyzed_at,
        created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository returns a SQLite-backed implementation.
func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	id := uuid.NewString()
	now := time.Now().UTC()
	status := report.Status
	if status == "" {
		status = domain.ReportStatusPending
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO reports (id, custom_id, title, description, report_type, incident_category, status,
            location, image, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		report.CustomID,
		report.Title,
		report.Description,
		string(report.ReportType),
		nullString(report.IncidentCategory),
		string(status),
		nullString(report.Location),
		nullString(report.Image),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return translateError(err)
	}
	report.ID = id
	report.Status = status
	report.CreatedAt = now
	report.UpdatedAt = now
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	return scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id))
}

func (r *reportRepository) GetByCustomID(ctx context.Context, customID string) (*domain.Report, error) {
	return scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE custom_id = ?`, customID))
}

func (r *reportRepository) List(ctx context.Context, filter repository.ReportFilter) ([]domain.Report, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.ReportType != nil {
		clauses = append(clauses, "report_type = ?")
		args = append(args, string(*filter.ReportType))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE `+strings.Join(clauses, " AND ")+
			` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, translateError(rows.Err())
}

func (r *reportRepository) UpdateStatus(ctx context.Context, customID string, status domain.ReportStatus, changedBy string) (*domain.Report, *domain.StatusChange, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := scanReport(tx.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE custom_id = ?`, customID))
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(now), current.ID,
	); err != nil {
		return nil, nil, translateError(err)
	}

	change := &domain.StatusChange{
		ID:        uuid.NewString(),
		ReportID:  current.ID,
		ChangedBy: changedBy,
		OldStatus: current.Status,
		NewStatus: status,
		CreatedAt: now,
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO report_status_changes (id, report_id, changed_by, old_status, new_status, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		change.ID, change.ReportID, change.ChangedBy,
		string(change.OldStatus), string(change.NewStatus), formatTime(now),
	); err != nil {
		return nil, nil, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	current.Status = status
	current.UpdatedAt = now
	return current, change, nil
}

func (r *reportRepository) SaveAnalysis(ctx context.Context, id string, analysis domain.ImageAnalysis) error {
	now := time.Now().UTC()
	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = now
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE reports SET analysis_title = ?, analysis_description = ?, analysis_report_type = ?,
            analyzed_at = ?, updated_at = ?
        WHERE id = ?`,
		analysis.Title,
		analysis.Description,
		string(analysis.ReportType),
		formatTime(analysis.AnalyzedAt),
		formatTime(now),
		id,
	)
	if err != nil {
		return translateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		report                                    domain.Report
		reportType, status                        string
		category, location, image                 sql.NullString
		analysisTitle, analysisDesc, analysisType sql.NullString
		analyzedAt                                sql.NullString
		created, updated                          string
	)
	if err := row.Scan(
		&report.ID,
		&report.CustomID,
		&report.Title,
		&report.Description,
		&reportType,
		&category,
		&status,
		&location,
		&image,
		&analysisTitle,
		&analysisDesc,
		&analysisType,
		&analyzedAt,
		&created,
		&updated,
	); err != nil {
		return nil, translateError(err)
	}

	report.ReportType = domain.ReportType(reportType)
	report.Status = domain.ReportStatus(status)
	report.IncidentCategory = stringPtr(category)
	report.Location = stringPtr(location)
	report.Image = stringPtr(image)

	var err error
	if report.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if report.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	at, err := parseNullTime(analyzedAt)
	if err != nil {
		return nil, err
	}
	if at != nil {
		report.Analysis = &domain.ImageAnalysis{
			Title:       analysisTitle.String,
			Description: analysisDesc.String,
			ReportType:  domain.ReportType(analysisType.String),
			AnalyzedAt:  *at,
		}
	}
	return &report, nil
}
