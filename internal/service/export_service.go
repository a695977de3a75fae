package service

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/pkg/export"
)

var reportExportHeaders = []string{"Date", "Class", "Total", "Present", "Absent", "Absent Roll Numbers", "Attendance %", "Teacher"}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title string
}

// ExportFile is a rendered report ready to be sent to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders stored report snapshots through the export package.
type ExportService struct {
	renderers map[models.ExportFormat]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Attendance Report"
	}
	return &ExportService{
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Render builds the dataset for a report and renders it in the requested format.
func (s *ExportService) Render(report *models.Report, format models.ExportFormat) (*ExportFile, error) {
	if report == nil {
		return nil, fmt.Errorf("report nil")
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
	payload, err := renderer.Render(s.buildDataset(report))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("report exported", zap.String("id", report.ID), zap.String("format", string(format)), zap.Int("bytes", len(payload)))
	return &ExportFile{
		Filename:    fmt.Sprintf("report-%s.%s", report.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

func (s *ExportService) buildDataset(report *models.Report) export.Dataset {
	lastDay := report.EndDate.Add(-models.Day)
	meta := []string{
		fmt.Sprintf("Period: %s to %s", report.StartDate.Format(models.DateLayout), lastDay.Format(models.DateLayout)),
		fmt.Sprintf("Format: %s", report.Format),
		fmt.Sprintf("Generated by %s at %s", report.GeneratedBy, report.Data.DateGenerated.Format("2006-01-02 15:04 MST")),
		fmt.Sprintf("Records: %d", report.Data.TotalRecords),
	}
	if report.Division != nil {
		meta = append(meta, "Division: "+*report.Division)
	}
	if report.ClassID != nil {
		meta = append(meta, "Class: "+*report.ClassID)
	}

	rows := make([]map[string]string, 0, len(report.Data.Records))
	for _, rec := range report.Data.Records {
		rows = append(rows, map[string]string{
			"Date":                rec.Date.Format(models.DateLayout),
			"Class":               rec.ClassID,
			"Total":               strconv.Itoa(rec.TotalStudents),
			"Present":             strconv.Itoa(rec.PresentStudents),
			"Absent":              strconv.Itoa(rec.AbsentStudents),
			"Absent Roll Numbers": joinRollNumbers(rec.AbsentRollNumbers),
			"Attendance %":        strconv.FormatFloat(rec.AttendancePercentage, 'f', 2, 64),
			"Teacher":             rec.TeacherName,
		})
	}

	totals := summarize(report.Data.Records)
	return export.Dataset{
		Title:   fmt.Sprintf("%s: %s", s.cfg.Title, report.Name),
		Meta:    meta,
		Headers: reportExportHeaders,
		Rows:    rows,
		Footer: map[string]string{
			"Date":         "Total",
			"Total":        strconv.Itoa(totals.TotalStudents),
			"Present":      strconv.Itoa(totals.PresentStudents),
			"Absent":       strconv.Itoa(totals.AbsentStudents),
			"Attendance %": strconv.FormatFloat(totals.AverageAttendance, 'f', 2, 64),
		},
	}
}

func joinRollNumbers(numbers models.RollNumbers) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.FormatInt(n, 10)
	}
	return strings.Join(parts, " ")
}
