package handler

import (
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-attendance-api/internal/repository"
	"github.com/noah-isme/school-attendance-api/internal/service"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAttendanceMalformedIDIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewAttendanceService(repository.NewAttendanceRepository(db), nil, nil, nil, nil)
	r := newTestRouter(NewAttendanceHandler(svc, nil))

	for _, tc := range []struct {
		method string
		body   interface{}
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]interface{}{"teacherName": "Mr. Iyer"}},
		{http.MethodDelete, nil},
	} {
		rec, envelope := perform(t, r, tc.method, "/attendance/not-a-uuid", tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)
		require.NotNil(t, envelope.Error, tc.method)
		assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportMalformedIDIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewReportService(service.ReportServiceParams{
		Repo:       repository.NewReportRepository(db),
		Attendance: repository.NewAttendanceRepository(db),
	})
	r := newTestRouter(NewReportHandler(svc))

	for _, path := range []string{"/reports/abc", "/reports/abc/export?format=pdf"} {
		rec, envelope := perform(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		require.NotNil(t, envelope.Error, path)
		assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	}
	rec, _ := perform(t, r, http.MethodDelete, "/reports/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassMalformedIDIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := service.NewClassService(repository.NewClassRepository(db), nil, nil)
	r := newTestRouter(NewClassHandler(svc))

	rec, envelope := perform(t, r, http.MethodGet, "/classes/C1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
