package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrArtifactNotFound is returned when no row matches the model name
var ErrArtifactNotFound = errors.New("model artifact not found")

// ArtifactRecord is a row of the model_artifacts table
type ArtifactRecord struct {
	Name      string    `db:"name"`
	Artifact  []byte    `db:"artifact"`
	CreatedAt time.Time `db:"created_at"`
}

// PostgresRepository reads model artifacts from PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// FetchArtifact returns the artifact stored under name
func (r *PostgresRepository) FetchArtifact(ctx context.Context, name string) ([]byte, error) {
	var record ArtifactRecord
	query := `
		SELECT name, artifact, created_at
		FROM model_artifacts
		WHERE name = $1
	`
	err := r.db.GetContext(ctx, &record, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("failed to get model artifact: %w", err)
	}
	return record.Artifact, nil
}
