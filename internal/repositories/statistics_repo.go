package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/denuncias/internal/database"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/lib/pq"
)

// StatisticsRepository holds the read-model queries behind the statistics views
type StatisticsRepository struct {
	db database.DBTX
}

func NewStatisticsRepository(db *database.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db.Pool}
}

// Summary counts complaints overall and per state. The resolution percentage is left to the caller.
func (r *StatisticsRepository) Summary(ctx context.Context) (models.Summary, error) {
	var s models.Summary

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE state = 'pending'),
		       COUNT(*) FILTER (WHERE state = 'in_progress'),
		       COUNT(*) FILTER (WHERE state = 'resolved')
		FROM complaints
	`).Scan(&s.Total, &s.Pending, &s.InProgress, &s.Resolved)
	if err != nil {
		return s, fmt.Errorf("failed to summarize complaints: %w", err)
	}

	return s, nil
}

// CountByCategory counts complaints per category created at or after since; a zero since counts all
func (r *StatisticsRepository) CountByCategory(ctx context.Context, since time.Time) ([]models.CategoryCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category, COUNT(*)
		FROM complaints
		WHERE created_at >= $1
		GROUP BY category
		ORDER BY COUNT(*) DESC, category
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer rows.Close()

	counts := make([]models.CategoryCount, 0)
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts = append(counts, cc)
	}

	return counts, rows.Err()
}

// CountByState counts complaints per state created at or after since; a zero since counts all
func (r *StatisticsRepository) CountByState(ctx context.Context, since time.Time) ([]models.StateCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT state, COUNT(*)
		FROM complaints
		WHERE created_at >= $1
		GROUP BY state
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count by state: %w", err)
	}
	defer rows.Close()

	found := make(map[models.State]int64)
	for rows.Next() {
		var state models.State
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		found[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// Every state is reported, zero included
	counts := make([]models.StateCount, 0, len(models.States))
	for _, st := range models.States {
		counts = append(counts, models.StateCount{State: st, Count: found[st]})
	}

	return counts, nil
}

// Timeline returns daily creation counts over the last windowDays days, oldest first
func (r *StatisticsRepository) Timeline(ctx context.Context, windowDays int) ([]models.DailyCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day, COUNT(*)
		FROM complaints
		WHERE created_at >= NOW() - make_interval(days => $1)
		GROUP BY day
		ORDER BY day
	`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}

	return scanDailyCounts(rows)
}

// Ranking ranks authorities by complaints resolved, then complaints touched.
// A complaint counts once per authority however many entries they recorded on
// it. The average is taken over touched complaints that have been resolved and
// is NULL when there are none.
func (r *StatisticsRepository) Ranking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	rows, err := r.db.Query(ctx, `
		WITH touched AS (
			SELECT DISTINCT authority_id, complaint_id
			FROM followup_entries
			WHERE authority_id IS NOT NULL
		),
		first_resolution AS (
			SELECT complaint_id, MIN(changed_at) AS resolved_at
			FROM followup_entries
			WHERE state_after = 'resolved'
			GROUP BY complaint_id
		)
		SELECT u.id, u.name, u.email,
		       COUNT(c.id) AS touched,
		       COUNT(c.id) FILTER (WHERE c.state = 'resolved') AS resolved,
		       AVG(EXTRACT(EPOCH FROM (fr.resolved_at - c.created_at)) / 3600.0)::float8 AS avg_hours
		FROM users u
		LEFT JOIN touched t ON t.authority_id = u.id
		LEFT JOIN complaints c ON c.id = t.complaint_id
		LEFT JOIN first_resolution fr ON fr.complaint_id = c.id
		WHERE u.role = 'authority'
		GROUP BY u.id, u.name, u.email
		ORDER BY resolved DESC, touched DESC, u.name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	ranking := make([]models.RankingEntry, 0)
	for rows.Next() {
		var e models.RankingEntry
		if err := rows.Scan(&e.AuthorityID, &e.Name, &e.Email, &e.Touched, &e.Resolved, &e.AvgResolutionHours); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		ranking = append(ranking, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ranking, nil
}

// HeatMap groups located complaints by coordinate rounded to 4 decimals,
// category and state. An empty categories slice means no filter.
func (r *StatisticsRepository) HeatMap(ctx context.Context, categories []models.Category) ([]models.HeatPoint, error) {
	filter := make([]string, 0, len(categories))
	for _, c := range categories {
		filter = append(filter, string(c))
	}

	rows, err := r.db.Query(ctx, `
		SELECT ROUND(latitude::numeric, 4)::float8 AS lat,
		       ROUND(longitude::numeric, 4)::float8 AS lng,
		       category, state, COUNT(*)
		FROM complaints
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		  AND (cardinality($1::text[]) = 0 OR category = ANY($1::text[]))
		GROUP BY lat, lng, category, state
		ORDER BY COUNT(*) DESC
	`, pq.Array(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to query heat map: %w", err)
	}
	defer rows.Close()

	points := make([]models.HeatPoint, 0)
	for rows.Next() {
		var p models.HeatPoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Category, &p.State, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan heat point: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return points, nil
}
