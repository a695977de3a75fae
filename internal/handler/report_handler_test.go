package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-attendance-api/internal/dto"
	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/service"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type reportServiceStub struct {
	report     *models.Report
	reports    []models.Report
	file       *service.ExportFile
	err        error
	generate   dto.GenerateReportRequest
	lastID     string
	lastFormat models.ExportFormat
}

func (s *reportServiceStub) Generate(_ context.Context, req dto.GenerateReportRequest) (*models.Report, error) {
	s.generate = req
	return s.report, s.err
}

func (s *reportServiceStub) List(context.Context) ([]models.Report, error) {
	return s.reports, s.err
}

func (s *reportServiceStub) Get(_ context.Context, id string) (*models.Report, error) {
	s.lastID = id
	return s.report, s.err
}

func (s *reportServiceStub) Delete(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *reportServiceStub) Export(_ context.Context, id string, format models.ExportFormat) (*service.ExportFile, error) {
	s.lastID, s.lastFormat = id, format
	return s.file, s.err
}

func sampleReport() *models.Report {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return &models.Report{
		ID:          "rep-1",
		Name:        "Report 2024-01-12T09:00:00.000Z",
		StartDate:   start,
		EndDate:     start.Add(2 * models.Day),
		Format:      models.ReportFormatSummary,
		GeneratedBy: "System",
		Data: models.ReportData{
			Records:      []models.Attendance{*sampleAttendance()},
			TotalRecords: 1,
			Summary:      &models.ReportSummary{TotalStudents: 30, PresentStudents: 28, AbsentStudents: 2, AverageAttendance: 93.33, Days: 1, Classes: 1},
		},
	}
}

func TestReportHandlerGenerate(t *testing.T) {
	stub := &reportServiceStub{report: sampleReport()}
	r := newTestRouter(NewReportHandler(stub))

	rec, envelope := perform(t, r, http.MethodPost, "/reports/generate", map[string]string{"startDate": "2024-01-10", "endDate": "2024-01-11", "classId": "C1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-01-10", stub.generate.StartDate)
	require.NotNil(t, stub.generate.ClassID)
	assert.Equal(t, "C1", *stub.generate.ClassID)
	var got models.Report
	require.NoError(t, json.Unmarshal(envelope.Data, &got))
	assert.Equal(t, 1, got.Data.TotalRecords)
	require.NotNil(t, got.Data.Summary)
	assert.Equal(t, 28, got.Data.Summary.PresentStudents)
}

func TestReportHandlerGenerateValidation(t *testing.T) {
	stub := &reportServiceStub{err: appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")}
	r := newTestRouter(NewReportHandler(stub))

	rec, envelope := perform(t, r, http.MethodPost, "/reports/generate", map[string]string{"startDate": "2024-01-11", "endDate": "2024-01-10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, envelope.Error)

	rec, _ = perform(t, r, http.MethodPost, "/reports/generate", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandlerListGetDelete(t *testing.T) {
	stub := &reportServiceStub{report: sampleReport(), reports: []models.Report{*sampleReport()}}
	r := newTestRouter(NewReportHandler(stub))

	rec, envelope := perform(t, r, http.MethodGet, "/reports", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []models.Report
	require.NoError(t, json.Unmarshal(envelope.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = perform(t, r, http.MethodGet, "/reports/rep-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rep-1", stub.lastID)

	rec, envelope = perform(t, r, http.MethodDelete, "/reports/rep-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Report removed"}`, string(envelope.Data))

	stub.err = appErrors.Clone(appErrors.ErrNotFound, "Report not found")
	rec, _ = perform(t, r, http.MethodGet, "/reports/gone", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = perform(t, r, http.MethodDelete, "/reports/gone", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportHandlerExport(t *testing.T) {
	stub := &reportServiceStub{file: &service.ExportFile{Filename: "report-rep-1.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}}
	r := newTestRouter(NewReportHandler(stub))

	rec, _ := perform(t, r, http.MethodGet, "/reports/rep-1/export?format=pdf", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ExportFormatPDF, stub.lastFormat)
	assert.Equal(t, "rep-1", stub.lastID)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report-rep-1.pdf")
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}

func TestReportHandlerExportInvalidFormat(t *testing.T) {
	stub := &reportServiceStub{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")}
	r := newTestRouter(NewReportHandler(stub))

	rec, envelope := perform(t, r, http.MethodGet, "/reports/rep-1/export?format=xlsx", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}
