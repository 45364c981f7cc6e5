package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/incident-service/internal/domain"
)

// ReportFilter narrows a report listing. Nil fields do not constrain.
type ReportFilter struct {
	Status     *domain.ReportStatus
	ReportType *domain.ReportType
}

// ReportRepository encapsulates report persistence.
type ReportRepository interface {
	// Create inserts a PENDING report and fills ID and timestamps. A taken
	// CustomID yields ErrDuplicate and writes nothing.
	Create(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	GetByCustomID(ctx context.Context, customID string) (*domain.Report, error)
	// List returns matching reports newest first, ties broken by id.
	List(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
	// UpdateStatus sets the status and appends the history entry in one transaction.
	UpdateStatus(ctx context.Context, customID string, status domain.ReportStatus, changedBy string) (*domain.Report, *domain.StatusChange, error)
	SaveAnalysis(ctx context.Context, id string, analysis domain.ImageAnalysis) error
}

const reportColumns = `id, custom_id, title, description, report_type, incident_category, status,
               location, image, analysis_title, analysis_description, analysis_report_type, analyzed_at,
               created_at, updated_at`

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.Report) error {
	const query = `
        INSERT INTO reports (custom_id, title, description, report_type, incident_category, status, location, image)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	if report.Status == "" {
		report.Status = domain.ReportStatusPending
	}
	err := r.pool.QueryRow(ctx, query,
		report.CustomID,
		report.Title,
		report.Description,
		report.ReportType,
		report.IncidentCategory,
		report.Status,
		report.Location,
		report.Image,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
	return translatePgError(err)
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	return scanReport(r.pool.QueryRow(ctx, query, id))
}

func (r *reportRepository) GetByCustomID(ctx context.Context, customID string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE custom_id=$1`
	return scanReport(r.pool.QueryRow(ctx, query, customID))
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.ReportType != nil {
		args = append(args, *filter.ReportType)
		clauses = append(clauses, fmt.Sprintf("report_type=$%d", len(args)))
	}

	query := `SELECT ` + reportColumns + ` FROM reports WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
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
	return reports, translatePgError(rows.Err())
}

func (r *reportRepository) UpdateStatus(ctx context.Context, customID string, status domain.ReportStatus, changedBy string) (*domain.Report, *domain.StatusChange, error) {
	var (
		report *domain.Report
		change *domain.StatusChange
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanReport(tx.QueryRow(ctx,
			`SELECT `+reportColumns+` FROM reports WHERE custom_id=$1 FOR UPDATE`, customID))
		if err != nil {
			return err
		}

		if err := tx.QueryRow(ctx,
			`UPDATE reports SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`,
			status, current.ID,
		).Scan(&current.UpdatedAt); err != nil {
			return translatePgError(err)
		}

		entry := domain.StatusChange{
			ReportID:  current.ID,
			ChangedBy: changedBy,
			OldStatus: current.Status,
			NewStatus: status,
		}
		if err := tx.QueryRow(ctx, `
            INSERT INTO report_status_changes (report_id, changed_by, old_status, new_status)
            VALUES ($1,$2,$3,$4)
            RETURNING id, created_at`,
			entry.ReportID, entry.ChangedBy, entry.OldStatus, entry.NewStatus,
		).Scan(&entry.ID, &entry.CreatedAt); err != nil {
			return translatePgError(err)
		}

		current.Status = status
		report = current
		change = &entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return report, change, nil
}

func (r *reportRepository) SaveAnalysis(ctx context.Context, id string, analysis domain.ImageAnalysis) error {
	const query = `
        UPDATE reports SET analysis_title=$1, analysis_description=$2, analysis_report_type=$3,
            analyzed_at=$4, updated_at=NOW()
        WHERE id=$5`
	if analysis.AnalyzedAt.IsZero() {
		analysis.AnalyzedAt = time.Now().UTC()
	}
	cmd, err := r.pool.Exec(ctx, query,
		analysis.Title,
		analysis.Description,
		analysis.ReportType,
		analysis.AnalyzedAt,
		id,
	)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		report       domain.Report
		analysisT    *string
		analysisD    *string
		analysisType *string
		analyzedAt   *time.Time
	)
	if err := row.Scan(
		&report.ID,
		&report.CustomID,
		&report.Title,
		&report.Description,
		&report.ReportType,
		&report.IncidentCategory,
		&report.Status,
		&report.Location,
		&report.Image,
		&analysisT,
		&analysisD,
		&analysisType,
		&analyzedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	report.Analysis = buildAnalysis(analysisT, analysisD, analysisType, analyzedAt)
	return &report, nil
}

// buildAnalysis assembles the optional annotation from its nullable columns.
func buildAnalysis(title, description, reportType *string, analyzedAt *time.Time) *domain.ImageAnalysis {
	if analyzedAt == nil {
		return nil
	}
	analysis := &domain.ImageAnalysis{AnalyzedAt: *analyzedAt}
	if title != nil {
		analysis.Title = *title
	}
	if description != nil {
		analysis.Description = *description
	}
	if reportType != nil {
		analysis.ReportType = domain.ReportType(*reportType)
	}
	return analysis
}
