package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

// fakeAttendanceRepo mimics the Postgres table including its unique (date, class_id) index.
type fakeAttendanceRepo struct {
	mu      sync.Mutex
	rows    map[string]models.Attendance
	seq     int
	listErr error
	clock   time.Time
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{rows: map[string]models.Attendance{}, clock: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeAttendanceRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeAttendanceRepo) conflicts(rec models.Attendance) bool {
	for id, row := range f.rows {
		if id != rec.ID && row.ClassID == rec.ClassID && row.Date.Equal(rec.Date) {
			return true
		}
	}
	return false
}

func (f *fakeAttendanceRepo) List(_ context.Context, filter models.AttendanceFilter) ([]models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Attendance{}
	for _, row := range f.rows {
		if filter.ClassID != "" && row.ClassID != filter.ClassID {
			continue
		}
		if filter.DateFrom != nil && row.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && !row.Date.Before(*filter.DateTo) {
			continue
		}
		out = append(out, row.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch filter.Sort {
		case models.SortClassAsc:
			return a.ClassID < b.ClassID
		case models.SortDateDescClassAsc:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.ClassID < b.ClassID
		case models.SortDateAscClassAsc:
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.ClassID < b.ClassID
		default:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return out, nil
}

func (f *fakeAttendanceRepo) FindByID(_ context.Context, id string) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := row.Clone()
	return &out, nil
}

func (f *fakeAttendanceRepo) FindByDateAndClass(_ context.Context, date time.Time, classID string) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ClassID == classID && row.Date.Equal(date) {
			out := row.Clone()
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAttendanceRepo) Create(_ context.Context, rec *models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.Date = models.NormalizeDate(rec.Date)
	if f.conflicts(*rec) {
		return fmt.Errorf("create attendance: %w", repository.ErrDuplicate)
	}
	f.seq++
	rec.ID = fmt.Sprintf("att-%d", f.seq)
	now := f.tick()
	rec.CreatedAt, rec.UpdatedAt = now, now
	f.rows[rec.ID] = rec.Clone()
	return nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, rec *models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[rec.ID]; !ok {
		return sql.ErrNoRows
	}
	rec.Date = models.NormalizeDate(rec.Date)
	if f.conflicts(*rec) {
		return fmt.Errorf("update attendance: %w", repository.ErrDuplicate)
	}
	rec.UpdatedAt = f.tick()
	f.rows[rec.ID] = rec.Clone()
	return nil
}

func (f *fakeAttendanceRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) InvalidateStats(context.Context) error {
	c.calls++
	return c.err
}

var errStoreDown = errors.New("store unavailable")

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// jsonCache stores values the way Redis does, as JSON bytes.
type jsonCache struct {
	values map[string][]byte
}

func (c *jsonCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *jsonCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *jsonCache) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	if raw, ok := c.values[key]; ok {
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.values[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (c *jsonCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.values {
		if strings.HasPrefix(k, prefix) {
			delete(c.values, k)
		}
	}
	return nil
}
