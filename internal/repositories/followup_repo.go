package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/denuncias/internal/database"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FollowUpRepository is the append-only ledger of state transitions
type FollowUpRepository struct {
	db database.DBTX
}

func NewFollowUpRepository(db *database.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db.Pool}
}

// WithTx returns a repository bound to tx
func (r *FollowUpRepository) WithTx(tx pgx.Tx) *FollowUpRepository {
	return &FollowUpRepository{db: tx}
}

// Record appends one entry. Entries are never updated.
func (r *FollowUpRepository) Record(ctx context.Context, entry *models.FollowUp) (*models.FollowUp, error) {
	entry.ID = uuid.New().String()
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO followup_entries (id, complaint_id, authority_id, comment, state_before, state_after, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.ComplaintID, entry.AuthorityID, entry.Comment, entry.StateBefore, entry.StateAfter, entry.ChangedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return entry, nil
}

// ListForComplaint returns the entries of one complaint, newest first
func (r *FollowUpRepository) ListForComplaint(ctx context.Context, complaintID string) ([]*models.FollowUp, error) {
	rows, err := r.db.Query(ctx, `
		SELECT f.id, f.complaint_id, f.authority_id, f.comment, f.state_before, f.state_after, f.changed_at, u.name
		FROM followup_entries f
		LEFT JOIN users u ON u.id = f.authority_id
		WHERE f.complaint_id = $1
		ORDER BY f.changed_at DESC
	`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query follow-ups: %w", database.MapPostgresError(err))
	}
	defer rows.Close()

	entries := make([]*models.FollowUp, 0)
	for rows.Next() {
		var f models.FollowUp
		if err := rows.Scan(
			&f.ID, &f.ComplaintID, &f.AuthorityID, &f.Comment,
			&f.StateBefore, &f.StateAfter, &f.ChangedAt, &f.AuthorityName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan follow-up: %w", err)
		}
		entries = append(entries, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// RecentStats groups the transitions of the last windowDays days by day, new state and authority
func (r *FollowUpRepository) RecentStats(ctx context.Context, windowDays int) ([]models.TransitionActivity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('day', f.changed_at) AS day, f.state_after, f.authority_id, u.name, COUNT(*)
		FROM followup_entries f
		LEFT JOIN users u ON u.id = f.authority_id
		WHERE f.changed_at >= NOW() - make_interval(days => $1)
		GROUP BY day, f.state_after, f.authority_id, u.name
		ORDER BY day DESC, f.state_after
	`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query follow-up stats: %w", err)
	}
	defer rows.Close()

	activity := make([]models.TransitionActivity, 0)
	for rows.Next() {
		var a models.TransitionActivity
		if err := rows.Scan(&a.Date, &a.StateAfter, &a.AuthorityID, &a.AuthorityName, &a.Changes); err != nil {
			return nil, fmt.Errorf("failed to scan follow-up stats: %w", err)
		}
		activity = append(activity, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return activity, nil
}
