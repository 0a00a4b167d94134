package services

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/BradenHooton/denuncias/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	rankingLimit       = 10
	recentComplaints   = 5
	timelineWindowDays = 30
)

// StatisticsRepository defines the aggregate reads behind the statistics views
type StatisticsRepository interface {
	Summary(ctx context.Context) (models.Summary, error)
	CountByCategory(ctx context.Context, since time.Time) ([]models.CategoryCount, error)
	CountByState(ctx context.Context, since time.Time) ([]models.StateCount, error)
	Timeline(ctx context.Context, windowDays int) ([]models.DailyCount, error)
	Ranking(ctx context.Context, limit int) ([]models.RankingEntry, error)
	HeatMap(ctx context.Context, categories []models.Category) ([]models.HeatPoint, error)
}

// StatisticsService computes the statistics views. Nothing is cached.
type StatisticsService struct {
	stats      StatisticsRepository
	complaints ComplaintRepository
	users      UserRepository
	followUps  FollowUpRepository
	logger     *slog.Logger
}

// NewStatisticsService creates a new StatisticsService
func NewStatisticsService(stats StatisticsRepository, complaints ComplaintRepository, users UserRepository, followUps FollowUpRepository, logger *slog.Logger) *StatisticsService {
	return &StatisticsService{
		stats:      stats,
		complaints: complaints,
		users:      users,
		followUps:  followUps,
		logger:     logger,
	}
}

// General builds the general summary. The independent reads run concurrently
// and the first failure cancels the rest.
func (s *StatisticsService) General(ctx context.Context) (*models.GeneralStats, error) {
	var out models.GeneralStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.stats.Summary(gctx)
		if err != nil {
			return err
		}
		summary.Resolution = resolutionPercentage(summary.Resolved, summary.Total)
		out.Summary = summary
		out.States = stateCounts(summary)
		return nil
	})
	g.Go(func() (err error) {
		out.Categories, err = s.stats.CountByCategory(gctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		out.Timeline, err = s.stats.Timeline(gctx, timelineWindowDays)
		return err
	})
	g.Go(func() (err error) {
		out.Recent, err = s.complaints.Recent(gctx, recentComplaints)
		return err
	})
	g.Go(func() (err error) {
		out.Users, err = s.users.Stats(gctx, statsWindowDays)
		return err
	})
	g.Go(func() (err error) {
		out.FollowUps, err = s.followUps.RecentStats(gctx, statsWindowDays)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to compute general statistics", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &out, nil
}

// Period reports on complaints created since the start of the current period
// containing now.
func (s *StatisticsService) Period(ctx context.Context, raw string, now time.Time) (*models.PeriodStats, error) {
	period, ok := models.ParsePeriod(strings.ToLower(strings.TrimSpace(raw)))
	if !ok {
		return nil, models.NewValidationError("period", "must be one of dia, semana, mes, ano")
	}

	since := PeriodStart(period, now)
	out := &models.PeriodStats{Period: period, Since: since}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.States, err = s.stats.CountByState(gctx, since)
		for _, sc := range out.States {
			out.Total += sc.Count
		}
		return err
	})
	g.Go(func() (err error) {
		out.Categories, err = s.stats.CountByCategory(gctx, since)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to compute period statistics", slog.String("period", string(period)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return out, nil
}

// Ranking returns the top authorities
func (s *StatisticsService) Ranking(ctx context.Context) ([]models.RankingEntry, error) {
	ranking, err := s.stats.Ranking(ctx, rankingLimit)
	if err != nil {
		s.logger.Error("failed to compute ranking", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	for i := range ranking {
		if avg := ranking[i].AvgResolutionHours; avg != nil {
			rounded := round2(*avg)
			ranking[i].AvgResolutionHours = &rounded
		}
	}

	return ranking, nil
}

// HeatMap returns located complaint counts, optionally limited to the
// comma-separated categories in raw.
func (s *StatisticsService) HeatMap(ctx context.Context, raw string) ([]models.HeatPoint, error) {
	var categories []models.Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, ok := models.ParseCategory(part)
		if !ok {
			return nil, models.NewValidationError("categorias", "contains an invalid category: "+part)
		}
		categories = append(categories, c)
	}

	points, err := s.stats.HeatMap(ctx, categories)
	if err != nil {
		s.logger.Error("failed to compute heat map", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return points, nil
}

// PeriodStart returns the first instant of the period containing now, in now's
// location. Weeks start on Monday.
func PeriodStart(p models.Period, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()

	switch p {
	case models.PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case models.PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case models.PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

// resolutionPercentage is resolved/total*100 rounded to two decimals, 0 when total is 0
// stateCounts reads the per-state breakdown off the summary row so both
// come from the same statement
func stateCounts(summary models.Summary) []models.StateCount {
	return []models.StateCount{
		{State: models.StatePending, Count: summary.Pending},
		{State: models.StateInProgress, Count: summary.InProgress},
		{State: models.StateResolved, Count: summary.Resolved},
	}
}

func resolutionPercentage(resolved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(resolved) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
