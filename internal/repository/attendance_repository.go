package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-attendance-api/internal/models"
)

const attendanceColumns = `id, date, class_id, total_students, present_students, absent_students, absent_roll_numbers, attendance_percentage, teacher_name, created_at, updated_at`

var attendanceOrderings = map[models.AttendanceSort]string{
	models.SortDateDesc:         "date DESC, created_at DESC, id DESC",
	models.SortClassAsc:         "class_id ASC",
	models.SortDateDescClassAsc: "date DESC, class_id ASC",
	models.SortDateAscClassAsc:  "date ASC, class_id ASC",
}

// AttendanceRepository persists daily class attendance tallies.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows matching the filter. DateFrom is inclusive and DateTo exclusive.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date < $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	order, ok := attendanceOrderings[filter.Sort]
	if !ok {
		order = attendanceOrderings[models.SortDateDesc]
	}

	query := fmt.Sprintf("SELECT %s FROM attendance WHERE %s ORDER BY %s", attendanceColumns, strings.Join(where, " AND "), order)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	for i := range rows {
		normalizeAttendance(&rows[i])
	}
	return rows, nil
}

// FindByID fetches a record by its identifier.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	key, ok := canonicalID(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE id = $1", attendanceColumns)
	var rec models.Attendance
	if err := r.db.GetContext(ctx, &rec, query, key); err != nil {
		return nil, err
	}
	normalizeAttendance(&rec)
	return &rec, nil
}

// FindByDateAndClass fetches the single record for a class on a calendar day.
func (r *AttendanceRepository) FindByDateAndClass(ctx context.Context, date time.Time, classID string) (*models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE date = $1 AND class_id = $2", attendanceColumns)
	var rec models.Attendance
	if err := r.db.GetContext(ctx, &rec, query, models.NormalizeDate(date), classID); err != nil {
		return nil, err
	}
	normalizeAttendance(&rec)
	return &rec, nil
}

// Create inserts a record. A second record for the same (date, class_id) is rejected by the
// unique index and reported as ErrDuplicate.
func (r *AttendanceRepository) Create(ctx context.Context, rec *models.Attendance) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Date = models.NormalizeDate(rec.Date)
	if rec.AbsentRollNumbers == nil {
		rec.AbsentRollNumbers = models.RollNumbers{}
	}

	const query = `INSERT INTO attendance (id, date, class_id, total_students, present_students, absent_students, absent_roll_numbers, attendance_percentage, teacher_name, created_at, updated_at)
VALUES (:id, :date, :class_id, :total_students, :present_students, :absent_students, :absent_roll_numbers, :attendance_percentage, :teacher_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create attendance: %w", ErrDuplicate)
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of an existing record.
func (r *AttendanceRepository) Update(ctx context.Context, rec *models.Attendance) error {
	key, ok := canonicalID(rec.ID)
	if !ok {
		return sql.ErrNoRows
	}
	rec.ID = key
	rec.UpdatedAt = time.Now().UTC()
	rec.Date = models.NormalizeDate(rec.Date)
	if rec.AbsentRollNumbers == nil {
		rec.AbsentRollNumbers = models.RollNumbers{}
	}

	const query = `UPDATE attendance SET date = :date, class_id = :class_id, total_students = :total_students, present_students = :present_students, absent_students = :absent_students, absent_roll_numbers = :absent_roll_numbers, attendance_percentage = :attendance_percentage, teacher_name = :teacher_name, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update attendance: %w", ErrDuplicate)
		}
		return fmt.Errorf("update attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attendance rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a record.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	key, ok := canonicalID(id)
	if !ok {
		return sql.ErrNoRows
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attendance rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// normalizeAttendance pins DATE columns to UTC midnight regardless of the driver's location handling.
func normalizeAttendance(rec *models.Attendance) {
	rec.Date = models.NormalizeDate(rec.Date)
	if rec.AbsentRollNumbers == nil {
		rec.AbsentRollNumbers = models.RollNumbers{}
	}
}
