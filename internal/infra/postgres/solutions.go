package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"classy-quiz-bot/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const rosettaBaseURL = "https://rosettacode.org/wiki/"

// SolutionStore reads code-guessing material from the solutions table.
type SolutionStore struct {
	pool *pgxpool.Pool
}

func NewSolutionStore(pool *pgxpool.Pool) *SolutionStore {
	return &SolutionStore{pool: pool}
}

func (s *SolutionStore) RandomSolution(ctx context.Context) (domain.Solution, error) {
	var sol domain.Solution
	err := s.pool.QueryRow(ctx,
		`SELECT id, task_name, lang, code FROM solutions ORDER BY random() LIMIT 1`,
	).Scan(&sol.ID, &sol.TaskName, &sol.Language, &sol.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Solution{}, domain.ErrSolutionNotFound
	}
	if err != nil {
		return domain.Solution{}, fmt.Errorf("random solution: %w", err)
	}
	sol.TaskURL = rosettaBaseURL + url.PathEscape(sol.TaskName)
	return sol, nil
}

func (s *SolutionStore) Languages(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT lang FROM solutions`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var langs []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		langs = append(langs, lang)
	}
	return langs, rows.Err()
}
