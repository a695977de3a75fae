package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat selects the shape of a report's format-specific section.
type ReportFormat string

const (
	ReportFormatSummary  ReportFormat = "summary"
	ReportFormatDetailed ReportFormat = "detailed"
	ReportFormatTemplate ReportFormat = "template"
)

// Valid returns true when the format is supported.
func (f ReportFormat) Valid() bool {
	switch f {
	case ReportFormatSummary, ReportFormatDetailed, ReportFormatTemplate:
		return true
	default:
		return false
	}
}

// ExportFormat enumerates the file formats a stored report can be rendered to.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Report is an immutable snapshot of attendance records over a date range.
// EndDate is exclusive: one day after the inclusive end the caller asked for.
type Report struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	StartDate   time.Time    `db:"start_date" json:"startDate"`
	EndDate     time.Time    `db:"end_date" json:"endDate"`
	Division    *string      `db:"division" json:"division"`
	ClassID     *string      `db:"class_id" json:"classId"`
	Format      ReportFormat `db:"format" json:"format"`
	GeneratedBy string       `db:"generated_by" json:"generatedBy"`
	Data        ReportData   `db:"data" json:"data"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updatedAt"`
}

// ReportData is the persisted payload. Exactly one of Summary, Detailed or Template is set,
// matching the report's format.
type ReportData struct {
	Records       []Attendance    `json:"records"`
	TotalRecords  int             `json:"totalRecords"`
	DateGenerated time.Time       `json:"dateGenerated"`
	Summary       *ReportSummary  `json:"summary,omitempty"`
	Detailed      *ReportDetailed `json:"detailed,omitempty"`
	Template      *ReportTemplate `json:"template,omitempty"`
}

// ReportSummary totals the snapshot across all classes.
type ReportSummary struct {
	TotalStudents     int     `json:"totalStudents"`
	PresentStudents   int     `json:"presentStudents"`
	AbsentStudents    int     `json:"absentStudents"`
	AverageAttendance float64 `json:"averageAttendance"`
	Days              int     `json:"days"`
	Classes           int     `json:"classes"`
}

// ReportDetailed breaks the snapshot down per class.
type ReportDetailed struct {
	ByClass []ClassBreakdown `json:"byClass"`
}

// ClassBreakdown aggregates one class's records within a report.
type ClassBreakdown struct {
	ClassID           string         `json:"classId"`
	ClassName         *string        `json:"className,omitempty"`
	Division          *ClassDivision `json:"division,omitempty"`
	Days              int            `json:"days"`
	PresentStudents   int            `json:"presentStudents"`
	AbsentStudents    int            `json:"absentStudents"`
	AverageAttendance float64        `json:"averageAttendance"`
}

// ReportTemplate is a blank grid skeleton: every day of the range against every class seen.
type ReportTemplate struct {
	Dates    []string `json:"dates"`
	ClassIDs []string `json:"classIds"`
}

// Value marshals the payload to JSON for persistence.
func (d ReportData) Value() (driver.Value, error) {
	if d.Records == nil {
		d.Records = []Attendance{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal report data: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload.
func (d *ReportData) Scan(value interface{}) error {
	if value == nil {
		*d = ReportData{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportData", value)
	}
	if len(data) == 0 {
		*d = ReportData{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal report data: %w", err)
	}
	return nil
}
