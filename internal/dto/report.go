package dto

import "github.com/noah-isme/school-attendance-api/internal/models"

// GenerateReportRequest captures POST /reports/generate payload. Dates are inclusive calendar days.
type GenerateReportRequest struct {
	Name        string              `json:"name"`
	StartDate   string              `json:"startDate" validate:"required"`
	EndDate     string              `json:"endDate" validate:"required"`
	Division    *string             `json:"division"`
	ClassID     *string             `json:"classId"`
	Format      models.ReportFormat `json:"format" validate:"omitempty,oneof=summary detailed template"`
	GeneratedBy string              `json:"generatedBy"`
}

// ExportReportQuery captures GET /reports/:id/export query parameters.
type ExportReportQuery struct {
	Format models.ExportFormat `form:"format" validate:"omitempty,oneof=csv pdf"`
}
