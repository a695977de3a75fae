package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/dto"
	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
	"github.com/noah-isme/school-attendance-api/pkg/middleware/requestid"
)

const (
	msgReportNotFound = "Report not found"
	reportNameLayout  = "2006-01-02T15:04:05.000Z07:00"
	maxTemplateDays   = 366
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context) ([]models.Report, error)
	Delete(ctx context.Context, id string) error
}

// ReportServiceConfig carries report defaults.
type ReportServiceConfig struct {
	DefaultGeneratedBy string
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Repo       reportStore
	Attendance attendanceLister
	Classes    ClassResolver
	Exporter   *ExportService
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     ReportServiceConfig
}

// ReportService generates immutable attendance report snapshots.
type ReportService struct {
	repo       reportStore
	attendance attendanceLister
	classes    ClassResolver
	exporter   *ExportService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
	cfg        ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	cfg := params.Config
	if cfg.DefaultGeneratedBy == "" {
		cfg.DefaultGeneratedBy = "System"
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exporter := params.Exporter
	if exporter == nil {
		exporter = NewExportService(ExportConfig{}, logger)
	}
	return &ReportService{
		repo:       params.Repo,
		attendance: params.Attendance,
		classes:    params.Classes,
		exporter:   exporter,
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// Generate snapshots the attendance records between the inclusive start and end days.
// The division is stored on the report but does not filter records.
func (s *ReportService) Generate(ctx context.Context, req dto.GenerateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startDate, expected YYYY-MM-DD")
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid endDate, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	format := req.Format
	if format == "" {
		format = models.ReportFormatSummary
	}
	from, to := models.DayRange(start, end)
	if format == models.ReportFormatTemplate && int(to.Sub(from)/models.Day) > maxTemplateDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template reports cover at most 366 days")
	}

	filter := models.AttendanceFilter{DateFrom: &from, DateTo: &to, Sort: models.SortDateAscClassAsc}
	classID := optional(req.ClassID)
	if classID != nil {
		filter.ClassID = *classID
	}
	records, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance for report")
	}
	snapshot := make([]models.Attendance, len(records))
	for i, rec := range records {
		snapshot[i] = rec.Clone()
	}

	now := s.now().UTC()
	report := &models.Report{
		Name:        strings.TrimSpace(req.Name),
		StartDate:   from,
		EndDate:     to,
		Division:    optional(req.Division),
		ClassID:     classID,
		Format:      format,
		GeneratedBy: strings.TrimSpace(req.GeneratedBy),
		Data: models.ReportData{
			Records:       snapshot,
			TotalRecords:  len(snapshot),
			DateGenerated: now,
		},
		CreatedAt: now,
	}
	if report.Name == "" {
		report.Name = "Report " + now.Format(reportNameLayout)
	}
	if report.GeneratedBy == "" {
		report.GeneratedBy = s.cfg.DefaultGeneratedBy
	}

	switch format {
	case models.ReportFormatSummary:
		report.Data.Summary = summarize(snapshot)
	case models.ReportFormatDetailed:
		report.Data.Detailed = s.breakdown(ctx, snapshot)
	case models.ReportFormatTemplate:
		report.Data.Template = templateGrid(from, to, snapshot, classID)
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	s.metrics.RecordReportGenerated(string(format))
	s.logger.Info("report generated",
		zap.String("id", report.ID),
		zap.String("format", string(format)),
		zap.Int("records", report.Data.TotalRecords),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return report, nil
}

// List returns every report, newest first.
func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// Get returns a report by ID.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgReportNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, msgReportNotFound)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	return nil
}

// Export renders a stored report to a downloadable file. An empty format means CSV.
func (s *ReportService) Export(ctx context.Context, id string, format models.ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = models.ExportFormatCSV
	}
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	file, err := s.exporter.Render(report, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export report")
	}
	return file, nil
}

func (s *ReportService) breakdown(ctx context.Context, records []models.Attendance) *models.ReportDetailed {
	type acc struct {
		days    map[time.Time]struct{}
		present int
		absent  int
		pctSum  float64
		count   int
	}
	byClass := map[string]*acc{}
	for _, rec := range records {
		a, ok := byClass[rec.ClassID]
		if !ok {
			a = &acc{days: map[time.Time]struct{}{}}
			byClass[rec.ClassID] = a
		}
		a.days[rec.Date] = struct{}{}
		a.present += rec.PresentStudents
		a.absent += rec.AbsentStudents
		a.pctSum += rec.AttendancePercentage
		a.count++
	}

	ids := make([]string, 0, len(byClass))
	for id := range byClass {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := &models.ReportDetailed{ByClass: make([]models.ClassBreakdown, 0, len(ids))}
	for _, id := range ids {
		a := byClass[id]
		row := models.ClassBreakdown{
			ClassID:           id,
			Days:              len(a.days),
			PresentStudents:   a.present,
			AbsentStudents:    a.absent,
			AverageAttendance: round2(a.pctSum / float64(a.count)),
		}
		if class := s.resolveClass(ctx, id); class != nil {
			name, division := class.Name, class.Division
			row.ClassName = &name
			row.Division = &division
		}
		out.ByClass = append(out.ByClass, row)
	}
	return out
}

func (s *ReportService) resolveClass(ctx context.Context, id string) *models.Class {
	if s.classes == nil {
		return nil
	}
	class, err := s.classes.Resolve(ctx, id)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNotFound) {
			s.logger.Warn("class lookup failed", zap.String("class_id", id), zap.Error(err))
		}
		return nil
	}
	return class
}

func summarize(records []models.Attendance) *models.ReportSummary {
	out := &models.ReportSummary{}
	days := map[time.Time]struct{}{}
	classes := map[string]struct{}{}
	var pctSum float64
	for _, rec := range records {
		out.TotalStudents += rec.TotalStudents
		out.PresentStudents += rec.PresentStudents
		out.AbsentStudents += rec.AbsentStudents
		pctSum += rec.AttendancePercentage
		days[rec.Date] = struct{}{}
		classes[rec.ClassID] = struct{}{}
	}
	if len(records) > 0 {
		out.AverageAttendance = round2(pctSum / float64(len(records)))
	}
	out.Days = len(days)
	out.Classes = len(classes)
	return out
}

func templateGrid(from, to time.Time, records []models.Attendance, classID *string) *models.ReportTemplate {
	out := &models.ReportTemplate{Dates: []string{}, ClassIDs: []string{}}
	for d := from; d.Before(to); d = d.Add(models.Day) {
		out.Dates = append(out.Dates, d.Format(models.DateLayout))
	}
	seen := map[string]struct{}{}
	if classID != nil {
		seen[*classID] = struct{}{}
	}
	for _, rec := range records {
		seen[rec.ClassID] = struct{}{}
	}
	for id := range seen {
		out.ClassIDs = append(out.ClassIDs, id)
	}
	sort.Strings(out.ClassIDs)
	return out
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	value := strings.TrimSpace(*v)
	if value == "" {
		return nil
	}
	return &value
}
