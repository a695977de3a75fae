package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

const reportColumns = `id, name, start_date, end_date, division, class_id, format, generated_by, data, created_at, updated_at`

// ReportRepository persists generated report snapshots. Reports are never updated after insert.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.UpdatedAt = report.CreatedAt
	const query = `INSERT INTO reports (id, name, start_date, end_date, division, class_id, format, generated_by, data, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :division, :class_id, :format, :generated_by, :data, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID returns a report by its identifier. A miss wraps sql.ErrNoRows.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	key, ok := canonicalID(id)
	if !ok {
		return nil, fmt.Errorf("get report: %w", sql.ErrNoRows)
	}
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, key); err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	normalizeReport(&report)
	return &report, nil
}

// List returns every report, newest first.
func (r *ReportRepository) List(ctx context.Context) ([]models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports ORDER BY created_at DESC", reportColumns)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	for i := range reports {
		normalizeReport(&reports[i])
	}
	return reports, nil
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	key, ok := canonicalID(id)
	if !ok {
		return sql.ErrNoRows
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalizeReport(report *models.Report) {
	report.StartDate = models.NormalizeDate(report.StartDate)
	report.EndDate = models.NormalizeDate(report.EndDate)
	if report.Data.Records == nil {
		report.Data.Records = []models.Attendance{}
	}
}
