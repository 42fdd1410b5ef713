package postgres

import (
	"context"
	"fmt"

	"classy-quiz-bot/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore persists cumulative player points in the player_scores table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) AddPoints(ctx context.Context, userID int64, delta int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO player_scores (user_id, points)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET points = player_scores.points + EXCLUDED.points`,
		userID, delta,
	)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	return nil
}

func (s *ScoreStore) TopN(ctx context.Context, n int) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, points FROM player_scores ORDER BY points DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var rec domain.ScoreRecord
		if err := rows.Scan(&rec.UserID, &rec.Points); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
