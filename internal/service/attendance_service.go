package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
	"github.com/noah-isme/school-attendance-api/pkg/middleware/requestid"
)

// Write outcomes recorded in metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

const (
	msgAttendanceNotFound  = "Attendance record not found"
	msgAttendanceDuplicate = "Attendance record for this class and date already exists"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	FindByDateAndClass(ctx context.Context, date time.Time, classID string) (*models.Attendance, error)
	Create(ctx context.Context, rec *models.Attendance) error
	Update(ctx context.Context, rec *models.Attendance) error
	Delete(ctx context.Context, id string) error
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context) error
}

// CreateAttendanceRequest is the payload for recording one class's attendance for a day.
type CreateAttendanceRequest struct {
	Date                 string   `json:"date" validate:"required"`
	ClassID              string   `json:"classId" validate:"required"`
	TotalStudents        *int     `json:"totalStudents" validate:"required,gte=0"`
	PresentStudents      *int     `json:"presentStudents" validate:"required,gte=0"`
	AbsentStudents       *int     `json:"absentStudents" validate:"required,gte=0"`
	AbsentRollNumbers    []int64  `json:"absentRollNumbers" validate:"omitempty,dive,gte=0"`
	AttendancePercentage *float64 `json:"attendancePercentage" validate:"required,gte=0,lte=100"`
	TeacherName          string   `json:"teacherName" validate:"required"`
}

// UpdateAttendanceRequest patches a record. Nil fields are left unchanged; empty strings count as nil.
// A non-nil empty AbsentRollNumbers clears the set.
type UpdateAttendanceRequest struct {
	Date                 *string  `json:"date"`
	ClassID              *string  `json:"classId"`
	TotalStudents        *int     `json:"totalStudents" validate:"omitempty,gte=0"`
	PresentStudents      *int     `json:"presentStudents" validate:"omitempty,gte=0"`
	AbsentStudents       *int     `json:"absentStudents" validate:"omitempty,gte=0"`
	AbsentRollNumbers    []int64  `json:"absentRollNumbers" validate:"omitempty,dive,gte=0"`
	AttendancePercentage *float64 `json:"attendancePercentage" validate:"omitempty,gte=0,lte=100"`
	TeacherName          *string  `json:"teacherName"`
}

// AttendanceService records daily class attendance and answers queries over it.
type AttendanceService struct {
	repo      attendanceRepository
	cache     statsInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service. cache and metrics may be nil.
func NewAttendanceService(repo attendanceRepository, cache statsInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Create stores a new record. The store's unique (date, class) index is the only duplicate check.
func (s *AttendanceService) Create(ctx context.Context, req CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date format, expected YYYY-MM-DD")
	}

	rec := &models.Attendance{
		Date:                 date,
		ClassID:              strings.TrimSpace(req.ClassID),
		TotalStudents:        *req.TotalStudents,
		PresentStudents:      *req.PresentStudents,
		AbsentStudents:       *req.AbsentStudents,
		AbsentRollNumbers:    models.RollNumbers(req.AbsentRollNumbers).Normalize(),
		AttendancePercentage: *req.AttendancePercentage,
		TeacherName:          req.TeacherName,
	}

	start := time.Now()
	err = s.repo.Create(ctx, rec)
	s.metrics.ObserveDBQuery("attendance.create", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordAttendanceWrite("create", OutcomeDuplicate)
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateRecord.Code, appErrors.ErrDuplicateRecord.Status, msgAttendanceDuplicate)
		}
		s.metrics.RecordAttendanceWrite("create", OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}
	s.metrics.RecordAttendanceWrite("create", OutcomeSuccess)
	s.invalidateStats(ctx)
	s.logger.Info("attendance recorded",
		zap.String("id", rec.ID),
		zap.String("class_id", rec.ClassID),
		zap.String("date", rec.Date.Format(models.DateLayout)),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return rec, nil
}

// Get returns a record by ID.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.Attendance, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgAttendanceNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return rec, nil
}

// Update applies a partial update to an existing record.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimmed(req.Date); v != "" {
		date, err := models.ParseDate(v)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date format, expected YYYY-MM-DD")
		}
		rec.Date = date
	}
	if v := trimmed(req.ClassID); v != "" {
		rec.ClassID = v
	}
	if req.TotalStudents != nil {
		rec.TotalStudents = *req.TotalStudents
	}
	if req.PresentStudents != nil {
		rec.PresentStudents = *req.PresentStudents
	}
	if req.AbsentStudents != nil {
		rec.AbsentStudents = *req.AbsentStudents
	}
	if req.AbsentRollNumbers != nil {
		rec.AbsentRollNumbers = models.RollNumbers(req.AbsentRollNumbers).Normalize()
	}
	if req.AttendancePercentage != nil {
		rec.AttendancePercentage = *req.AttendancePercentage
	}
	if req.TeacherName != nil && *req.TeacherName != "" {
		rec.TeacherName = *req.TeacherName
	}

	start := time.Now()
	err = s.repo.Update(ctx, rec)
	s.metrics.ObserveDBQuery("attendance.update", time.Since(start))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordAttendanceWrite("update", OutcomeDuplicate)
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateRecord.Code, appErrors.ErrDuplicateRecord.Status, msgAttendanceDuplicate)
		case errors.Is(err, sql.ErrNoRows):
			s.metrics.RecordAttendanceWrite("update", OutcomeNotFound)
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgAttendanceNotFound)
		default:
			s.metrics.RecordAttendanceWrite("update", OutcomeError)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
		}
	}
	s.metrics.RecordAttendanceWrite("update", OutcomeSuccess)
	s.invalidateStats(ctx)
	return rec, nil
}

// Delete removes a record.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveDBQuery("attendance.delete", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordAttendanceWrite("delete", OutcomeNotFound)
			return appErrors.Clone(appErrors.ErrNotFound, msgAttendanceNotFound)
		}
		s.metrics.RecordAttendanceWrite("delete", OutcomeError)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	s.metrics.RecordAttendanceWrite("delete", OutcomeSuccess)
	s.invalidateStats(ctx)
	return nil
}

// List returns every record, newest day first.
func (s *AttendanceService) List(ctx context.Context) ([]models.Attendance, error) {
	return s.query(ctx, "attendance.list", models.AttendanceFilter{Sort: models.SortDateDesc})
}

// ByDate returns the records of one calendar day ordered by class.
func (s *AttendanceService) ByDate(ctx context.Context, date time.Time) ([]models.Attendance, error) {
	from, to := models.DayRange(date, date)
	return s.query(ctx, "attendance.by_date", models.AttendanceFilter{DateFrom: &from, DateTo: &to, Sort: models.SortClassAsc})
}

// ByClass returns a class's records, newest day first.
func (s *AttendanceService) ByClass(ctx context.Context, classID string) ([]models.Attendance, error) {
	return s.query(ctx, "attendance.by_class", models.AttendanceFilter{ClassID: classID, Sort: models.SortDateDesc})
}

// ByDateAndClass returns the single record for a class on a calendar day.
func (s *AttendanceService) ByDateAndClass(ctx context.Context, date time.Time, classID string) (*models.Attendance, error) {
	start := time.Now()
	rec, err := s.repo.FindByDateAndClass(ctx, models.NormalizeDate(date), classID)
	s.metrics.ObserveDBQuery("attendance.by_date_class", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Attendance record not found for this date and class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return rec, nil
}

// ByRange returns records from start through end inclusive, newest day first then by class.
func (s *AttendanceService) ByRange(ctx context.Context, start, end time.Time) ([]models.Attendance, error) {
	from, to := models.DayRange(start, end)
	return s.query(ctx, "attendance.by_range", models.AttendanceFilter{DateFrom: &from, DateTo: &to, Sort: models.SortDateDescClassAsc})
}

func (s *AttendanceService) query(ctx context.Context, label string, filter models.AttendanceFilter) ([]models.Attendance, error) {
	start := time.Now()
	rows, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if rows == nil {
		rows = []models.Attendance{}
	}
	return rows, nil
}

func (s *AttendanceService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStats(ctx); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
