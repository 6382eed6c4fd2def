package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Open connects to postgres, retrying while the database container is
// still starting up.
func Open(ctx context.Context, databaseURL string, retries int, log zerolog.Logger) (*sql.DB, error) {
	if retries < 1 {
		retries = 1
	}

	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	for i := 0; i < retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			log.Info().Msg("connected to database")
			return conn, nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("of", retries).Msg("waiting for database")

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	_ = conn.Close()
	return nil, fmt.Errorf("ping database: %w", err)
}
