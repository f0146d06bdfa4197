package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/normienation/normie/internal/models"

	_ "github.com/lib/pq"
)

// PostgresStorage appends sampled price points to Postgres. It is an
// archive only; the service never reads history back from it.
type PostgresStorage struct {
	db     *sql.DB
	symbol string
}

func NewPostgresStorage(connStr, symbol string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db, symbol: symbol}

	if err := s.initTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// SavePricePoint implements data.PriceArchive
func (s *PostgresStorage) SavePricePoint(ctx context.Context, point *models.PricePoint) error {
	query := `
        INSERT INTO price_points (
            symbol, price, volume, sampled_at
        ) VALUES (
            $1, $2, $3, $4
        )
    `

	_, err := s.db.ExecContext(ctx, query,
		s.symbol,
		point.Price,
		point.Volume,
		time.UnixMilli(point.Timestamp).UTC(),
	)

	if err != nil {
		return fmt.Errorf("failed to save price point: %w", err)
	}

	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) initTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS price_points (
			id BIGSERIAL PRIMARY KEY,
			symbol VARCHAR(50) NOT NULL,
			price NUMERIC(30, 18),
			volume NUMERIC(30, 8),
			sampled_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS price_points_symbol_sampled_at_idx
			ON price_points (symbol, sampled_at)`,
	}

	for _, query := range queries {
		_, err := s.db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
