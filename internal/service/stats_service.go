package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/dto"
	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

const recentWindow = 7 * 24 * time.Hour

type attendanceLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, error)
}

// StatsServiceConfig tunes dashboard statistics.
type StatsServiceConfig struct {
	CacheTTL time.Duration
	// Location defines the school's calendar day for "today". Defaults to UTC.
	Location *time.Location
}

// StatsServiceParams groups constructor dependencies.
type StatsServiceParams struct {
	Repo    attendanceLister
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  StatsServiceConfig
}

// StatsService computes dashboard statistics over every stored attendance record.
type StatsService struct {
	repo    attendanceLister
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     StatsServiceConfig
}

// NewStatsService constructs a StatsService with sane defaults.
func NewStatsService(params StatsServiceParams) *StatsService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		repo:    params.Repo,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Dashboard returns statistics as of the current time and reports whether they came from cache.
func (s *StatsService) Dashboard(ctx context.Context) (*dto.DashboardStatsResponse, bool, error) {
	now := s.now()
	key, cacheable := "", s.cache.Enabled()
	if cacheable {
		generation, err := s.cache.StatsGeneration(ctx)
		cacheable = err == nil
		key = StatsKey(s.today(now), generation)
	}
	if cacheable {
		var cached dto.DashboardStatsResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	stats, err := s.Compute(ctx, now)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		if err := s.cache.Set(ctx, key, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, false, nil
}

// Compute aggregates every stored record relative to now. It never writes to the store.
// Storage failures and panics during aggregation surface as AGGREGATION_FAILURE.
func (s *StatsService) Compute(ctx context.Context, now time.Time) (stats *dto.DashboardStatsResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("stats aggregation panicked", zap.Any("panic", r))
			s.metrics.RecordStatsFailure()
			stats = nil
			err = appErrors.Wrap(fmt.Errorf("panic: %v", r), appErrors.ErrAggregationFailure.Code, appErrors.ErrAggregationFailure.Status, appErrors.ErrAggregationFailure.Message)
		}
	}()

	start := time.Now()
	records, err := s.repo.List(ctx, models.AttendanceFilter{Sort: models.SortDateDesc})
	s.metrics.ObserveDBQuery("attendance.stats", time.Since(start))
	if err != nil {
		s.logger.Error("stats aggregation failed", zap.Error(err))
		s.metrics.RecordStatsFailure()
		return nil, appErrors.Wrap(err, appErrors.ErrAggregationFailure.Code, appErrors.ErrAggregationFailure.Status, appErrors.ErrAggregationFailure.Message)
	}
	return computeStats(records, now, s.today(now)), nil
}

func (s *StatsService) today(now time.Time) time.Time {
	return models.NormalizeDate(now.In(s.cfg.Location))
}

// computeStats is the pure aggregation behind Compute. today is the normalized current school day.
func computeStats(records []models.Attendance, now, today time.Time) *dto.DashboardStatsResponse {
	latest := latestPerClass(records)
	stats := &dto.DashboardStatsResponse{
		TotalClasses:     len(latest),
		RecentAttendance: []dto.RecentAttendance{},
	}
	for _, rec := range latest {
		stats.TotalStudents += rec.TotalStudents
	}

	tomorrow := today.Add(models.Day)
	var pctSum float64
	for _, rec := range records {
		if !rec.Date.Before(today) && rec.Date.Before(tomorrow) {
			stats.TodayPresent += rec.PresentStudents
		}
		pctSum += rec.AttendancePercentage
	}
	if len(records) > 0 {
		stats.AverageAttendance = round2(pctSum / float64(len(records)))
	}

	cutoff := now.Add(-recentWindow)
	recent := make([]models.Attendance, 0, len(records))
	for _, rec := range records {
		if !rec.Date.Before(cutoff) {
			recent = append(recent, rec)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].Date.Equal(recent[j].Date) {
			return recent[i].Date.Before(recent[j].Date)
		}
		return recent[i].ClassID < recent[j].ClassID
	})
	for _, rec := range recent {
		stats.RecentAttendance = append(stats.RecentAttendance, dto.RecentAttendance{
			Date:       rec.Date.Format(models.DateLayout),
			Percentage: rec.AttendancePercentage,
		})
	}
	return stats
}

// latestPerClass picks each class's record with the greatest date, breaking ties by
// most recent creation and then by highest ID so the choice is deterministic.
func latestPerClass(records []models.Attendance) map[string]models.Attendance {
	latest := make(map[string]models.Attendance)
	for _, rec := range records {
		cur, ok := latest[rec.ClassID]
		if !ok || newer(rec, cur) {
			latest[rec.ClassID] = rec
		}
	}
	return latest
}

func newer(a, b models.Attendance) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
