package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/denuncias/internal/database"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ComplaintRepository struct {
	db database.DBTX
}

func NewComplaintRepository(db *database.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db.Pool}
}

// WithTx returns a repository bound to tx
func (r *ComplaintRepository) WithTx(tx pgx.Tx) *ComplaintRepository {
	return &ComplaintRepository{db: tx}
}

const complaintSelect = `
	SELECT c.id, c.submitter_id, c.title, c.description, c.category,
	       c.latitude, c.longitude, c.address, c.photo_url, c.state, c.created_at,
	       u.name, u.email
	FROM complaints c
	JOIN users u ON u.id = c.submitter_id`

// scanComplaintRow folds the nullable coordinate columns into a single optional value
func scanComplaintRow(scanner rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	var lat, lng *float64

	err := scanner.Scan(
		&c.ID, &c.SubmitterID, &c.Title, &c.Description, &c.Category,
		&lat, &lng, &c.Address, &c.PhotoURL, &c.State, &c.CreatedAt,
		&c.SubmitterName, &c.SubmitterEmail,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if lat != nil && lng != nil {
		c.Location = &models.Coordinates{Latitude: *lat, Longitude: *lng}
	}

	return &c, nil
}

func scanComplaintRows(rows pgx.Rows) ([]*models.Complaint, error) {
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)

	for rows.Next() {
		c, err := scanComplaintRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return complaints, nil
}

func (r *ComplaintRepository) query(ctx context.Context, query string, args ...any) ([]*models.Complaint, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", database.MapPostgresError(err))
	}

	return scanComplaintRows(rows)
}

// Create inserts a complaint in state pending
func (r *ComplaintRepository) Create(ctx context.Context, nc *models.NewComplaint) (*models.Complaint, error) {
	var lat, lng *float64
	if nc.Location != nil {
		lat, lng = &nc.Location.Latitude, &nc.Location.Longitude
	}

	query := `
		WITH c AS (
			INSERT INTO complaints (id, submitter_id, title, description, category, latitude, longitude, address, photo_url, state, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING *
		)
		SELECT c.id, c.submitter_id, c.title, c.description, c.category,
		       c.latitude, c.longitude, c.address, c.photo_url, c.state, c.created_at,
		       u.name, u.email
		FROM c
		JOIN users u ON u.id = c.submitter_id`

	return scanComplaintRow(r.db.QueryRow(ctx, query,
		uuid.New().String(), nc.SubmitterID, nc.Title, nc.Description, nc.Category,
		lat, lng, nc.Address, nc.PhotoURL, models.StatePending, time.Now(),
	))
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	return scanComplaintRow(r.db.QueryRow(ctx, complaintSelect+` WHERE c.id = $1`, id))
}

// GetForUpdate reads a complaint and locks its row until the surrounding transaction ends
func (r *ComplaintRepository) GetForUpdate(ctx context.Context, id string) (*models.Complaint, error) {
	return scanComplaintRow(r.db.QueryRow(ctx, complaintSelect+` WHERE c.id = $1 FOR UPDATE OF c`, id))
}

func (r *ComplaintRepository) List(ctx context.Context) ([]*models.Complaint, error) {
	return r.query(ctx, complaintSelect+` ORDER BY c.created_at DESC`)
}

func (r *ComplaintRepository) ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Complaint, error) {
	return r.query(ctx, complaintSelect+` WHERE c.submitter_id = $1 ORDER BY c.created_at DESC`, submitterID)
}

func (r *ComplaintRepository) ListByCategory(ctx context.Context, category models.Category) ([]*models.Complaint, error) {
	return r.query(ctx, complaintSelect+` WHERE c.category = $1 ORDER BY c.created_at DESC`, category)
}

func (r *ComplaintRepository) ListByState(ctx context.Context, state models.State) ([]*models.Complaint, error) {
	return r.query(ctx, complaintSelect+` WHERE c.state = $1 ORDER BY c.created_at DESC`, state)
}

// Recent returns the newest limit complaints
func (r *ComplaintRepository) Recent(ctx context.Context, limit int) ([]*models.Complaint, error) {
	return r.query(ctx, complaintSelect+` ORDER BY c.created_at DESC LIMIT $1`, limit)
}

// Search matches term literally and case-insensitively against title, description and address
func (r *ComplaintRepository) Search(ctx context.Context, term string) ([]*models.Complaint, error) {
	pattern := "%" + escapeLike(term) + "%"

	return r.query(ctx, complaintSelect+`
		WHERE c.title ILIKE $1 OR c.description ILIKE $1 OR c.address ILIKE $1
		ORDER BY c.created_at DESC`, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// UpdateState changes only the state column
func (r *ComplaintRepository) UpdateState(ctx context.Context, id string, state models.State) error {
	result, err := r.db.Exec(ctx, `UPDATE complaints SET state = $1 WHERE id = $2`, state, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes the complaint only when submitterID owns it and returns the
// removed photo reference. Absent and not-owned both yield ErrNotFound.
func (r *ComplaintRepository) Delete(ctx context.Context, id, submitterID string) (*string, error) {
	var photoURL *string

	err := r.db.QueryRow(ctx,
		`DELETE FROM complaints WHERE id = $1 AND submitter_id = $2 RETURNING photo_url`,
		id, submitterID,
	).Scan(&photoURL)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return photoURL, nil
}

// PhotoURLs returns every stored photo reference
func (r *ComplaintRepository) PhotoURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT photo_url FROM complaints WHERE photo_url IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo urls: %w", err)
	}
	defer rows.Close()

	urls := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan photo url: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}
