//go:build integration

package repositories

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/BradenHooton/denuncias/internal/database"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/pkg/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testDB manages a PostgreSQL testcontainer with the schema applied
type testDB struct {
	container testcontainers.Container
	pool      *pgxpool.Pool
	db        *database.DB
}

// setupTestDatabase starts PostgreSQL, runs the embedded migrations and returns the wrapper
func setupTestDatabase(ctx context.Context) (*testDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("denuncias"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Suppress goose logs
	goose.SetLogger(log.New(io.Discard, "", 0))

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testDB{
		container: container,
		pool:      pool,
		db:        database.New(pool, logger),
	}, nil
}

func (tdb *testDB) teardown(ctx context.Context) {
	if tdb.pool != nil {
		tdb.pool.Close()
	}
	if tdb.container != nil {
		_ = tdb.container.Terminate(ctx)
	}
}

// cleanupTables truncates all tables for test isolation
func (tdb *testDB) cleanupTables(ctx context.Context) error {
	if _, err := tdb.pool.Exec(ctx, `TRUNCATE TABLE followup_entries, complaints, users CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// seedUser inserts a user with a hashed password
func (tdb *testDB) seedUser(ctx context.Context, email string, role models.Role) (*models.User, error) {
	hash, err := auth.HashPassword("TestPassword123")
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return NewUserRepository(tdb.db).Create(ctx, &models.User{
		Name:         "User " + email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
}
