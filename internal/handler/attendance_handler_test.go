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

type attendanceServiceStub struct {
	record    *models.Attendance
	records   []models.Attendance
	err       error
	lastID    string
	lastClass string
	lastDates []time.Time
	create    service.CreateAttendanceRequest
	update    service.UpdateAttendanceRequest
}

func (s *attendanceServiceStub) Create(_ context.Context, req service.CreateAttendanceRequest) (*models.Attendance, error) {
	s.create = req
	return s.record, s.err
}

func (s *attendanceServiceStub) Get(_ context.Context, id string) (*models.Attendance, error) {
	s.lastID = id
	return s.record, s.err
}

func (s *attendanceServiceStub) Update(_ context.Context, id string, req service.UpdateAttendanceRequest) (*models.Attendance, error) {
	s.lastID, s.update = id, req
	return s.record, s.err
}

func (s *attendanceServiceStub) Delete(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *attendanceServiceStub) List(context.Context) ([]models.Attendance, error) {
	return s.records, s.err
}

func (s *attendanceServiceStub) ByDate(_ context.Context, date time.Time) ([]models.Attendance, error) {
	s.lastDates = []time.Time{date}
	return s.records, s.err
}

func (s *attendanceServiceStub) ByClass(_ context.Context, classID string) ([]models.Attendance, error) {
	s.lastClass = classID
	return s.records, s.err
}

func (s *attendanceServiceStub) ByDateAndClass(_ context.Context, date time.Time, classID string) (*models.Attendance, error) {
	s.lastDates, s.lastClass = []time.Time{date}, classID
	return s.record, s.err
}

func (s *attendanceServiceStub) ByRange(_ context.Context, start, end time.Time) ([]models.Attendance, error) {
	s.lastDates = []time.Time{start, end}
	return s.records, s.err
}

type statsServiceStub struct {
	stats *dto.DashboardStatsResponse
	hit   bool
	err   error
}

func (s statsServiceStub) Dashboard(context.Context) (*dto.DashboardStatsResponse, bool, error) {
	return s.stats, s.hit, s.err
}

func sampleAttendance() *models.Attendance {
	return &models.Attendance{
		ID:                   "att-1",
		Date:                 time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ClassID:              "C1",
		TotalStudents:        30,
		PresentStudents:      28,
		AbsentStudents:       2,
		AbsentRollNumbers:    models.RollNumbers{4, 17},
		AttendancePercentage: 93.33,
		TeacherName:          "Ms. Rahma",
	}
}

func TestAttendanceHandlerCreate(t *testing.T) {
	stub := &attendanceServiceStub{record: sampleAttendance()}
	r := newTestRouter(NewAttendanceHandler(stub, nil))

	rec, envelope := perform(t, r, http.MethodPost, "/attendance", map[string]interface{}{
		"date": "2024-01-10", "classId": "C1", "totalStudents": 30, "presentStudents": 28,
		"absentStudents": 2, "absentRollNumbers": []int{17, 4}, "attendancePercentage": 93.33, "teacherName": "Ms. Rahma",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "C1", stub.create.ClassID)
	require.NotNil(t, stub.create.TotalStudents)
	assert.Equal(t, 30, *stub.create.TotalStudents)
	var got models.Attendance
	require.NoError(t, json.Unmarshal(envelope.Data, &got))
	assert.Equal(t, "att-1", got.ID)
	assert.Equal(t, models.RollNumbers{4, 17}, got.AbsentRollNumbers)
}

func TestAttendanceHandlerCreateStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		body   interface{}
		status int
		code   string
	}{
		{name: "malformed body", body: "{", status: http.StatusBadRequest, code: appErrors.ErrValidation.Code},
		{name: "validation", err: appErrors.Clone(appErrors.ErrValidation, "classId is required"), body: map[string]string{}, status: http.StatusBadRequest, code: appErrors.ErrValidation.Code},
		{name: "duplicate", err: appErrors.Clone(appErrors.ErrDuplicateRecord, "exists"), body: map[string]string{}, status: http.StatusBadRequest, code: "DUPLICATE_RECORD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(NewAttendanceHandler(&attendanceServiceStub{err: tc.err}, nil))
			rec, envelope := perform(t, r, http.MethodPost, "/attendance", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tc.code, envelope.Error.Code)
		})
	}
}

func TestAttendanceHandlerGetNotFound(t *testing.T) {
	stub := &attendanceServiceStub{err: appErrors.Clone(appErrors.ErrNotFound, "Attendance record not found")}
	r := newTestRouter(NewAttendanceHandler(stub, nil))

	rec, envelope := perform(t, r, http.MethodGet, "/attendance/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", stub.lastID)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Attendance record not found", envelope.Error.Message)
}

func TestAttendanceHandlerUpdateAndDelete(t *testing.T) {
	stub := &attendanceServiceStub{record: sampleAttendance()}
	r := newTestRouter(NewAttendanceHandler(stub, nil))

	rec, _ := perform(t, r, http.MethodPut, "/attendance/att-1", map[string]interface{}{"presentStudents": 0, "absentRollNumbers": []int{}})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.update.PresentStudents)
	assert.Equal(t, 0, *stub.update.PresentStudents)
	assert.NotNil(t, stub.update.AbsentRollNumbers)
	assert.Empty(t, stub.update.AbsentRollNumbers)
	assert.Nil(t, stub.update.TotalStudents)

	rec, envelope := perform(t, r, http.MethodDelete, "/attendance/att-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Attendance record removed"}`, string(envelope.Data))
}

func TestAttendanceHandlerDateQueries(t *testing.T) {
	stub := &attendanceServiceStub{records: []models.Attendance{*sampleAttendance()}, record: sampleAttendance()}
	r := newTestRouter(NewAttendanceHandler(stub, nil))
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	rec, _ := perform(t, r, http.MethodGet, "/attendance/date/2024-01-10", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []time.Time{day}, stub.lastDates)

	rec, _ = perform(t, r, http.MethodGet, "/attendance/date/2024-01-10/class/C1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "C1", stub.lastClass)

	rec, _ = perform(t, r, http.MethodGet, "/attendance/class/C2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "C2", stub.lastClass)

	rec, _ = perform(t, r, http.MethodGet, "/attendance/range/2024-01-10/2024-01-11", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []time.Time{day, day.Add(models.Day)}, stub.lastDates)
}

func TestAttendanceHandlerRejectsBadDates(t *testing.T) {
	r := newTestRouter(NewAttendanceHandler(&attendanceServiceStub{}, nil))

	for _, path := range []string{"/attendance/date/not-a-date", "/attendance/range/2024-01-10/later", "/attendance/date/2024-13-01/class/C1"} {
		rec, envelope := perform(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.NotNil(t, envelope.Error, path)
		assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
	}
}

func TestAttendanceHandlerStats(t *testing.T) {
	stats := &dto.DashboardStatsResponse{TotalStudents: 30, TotalClasses: 1, TodayPresent: 25, AverageAttendance: 88.33, RecentAttendance: []dto.RecentAttendance{}}
	r := newTestRouter(NewAttendanceHandler(&attendanceServiceStub{}, statsServiceStub{stats: stats, hit: true}))

	rec, envelope := perform(t, r, http.MethodGet, "/attendance/stats", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	var got dto.DashboardStatsResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &got))
	assert.Equal(t, 88.33, got.AverageAttendance)
	assert.Equal(t, 25, got.TodayPresent)
}

func TestAttendanceHandlerStatsFailure(t *testing.T) {
	failure := appErrors.Clone(appErrors.ErrAggregationFailure, "failed to compute attendance statistics")
	r := newTestRouter(NewAttendanceHandler(&attendanceServiceStub{}, statsServiceStub{err: failure}))

	rec, envelope := perform(t, r, http.MethodGet, "/attendance/stats", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrAggregationFailure.Code, envelope.Error.Code)
}
