package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"classy-quiz-bot/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const rosettaBaseURL = "https://rosettacode.org/wiki/"

// Store backs both the solutions bank and the player score table with a
// single SQLite file, for deployments without Postgres.
type Store struct {
	conn *sql.DB
}

// Open connects to the database file and creates missing tables.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := createTables(conn); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func createTables(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS solutions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_name TEXT NOT NULL,
			lang TEXT NOT NULL,
			code TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = conn.Exec(`
		CREATE TABLE IF NOT EXISTS player_scores (
			user_id INTEGER PRIMARY KEY,
			points INTEGER NOT NULL
		)
	`)
	return err
}

// RandomSolution returns one uniformly random snippet.
func (s *Store) RandomSolution(ctx context.Context) (domain.Solution, error) {
	var sol domain.Solution
	err := s.conn.QueryRowContext(ctx,
		"SELECT id, task_name, lang, code FROM solutions ORDER BY random() LIMIT 1",
	).Scan(&sol.ID, &sol.TaskName, &sol.Language, &sol.Code)
	if err == sql.ErrNoRows {
		return domain.Solution{}, domain.ErrSolutionNotFound
	}
	if err != nil {
		return domain.Solution{}, fmt.Errorf("random solution: %w", err)
	}
	sol.TaskURL = rosettaBaseURL + url.PathEscape(sol.TaskName)
	return sol, nil
}

// Languages lists the distinct languages in the solutions table.
func (s *Store) Languages(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT DISTINCT(lang) FROM solutions")
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

// AddSolution inserts a snippet (used by seeding and tests).
func (s *Store) AddSolution(ctx context.Context, sol domain.Solution) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO solutions (task_name, lang, code) VALUES (?, ?, ?)",
		sol.TaskName, sol.Language, sol.Code,
	)
	return err
}

// AddPoints adds delta to the user's total, creating the row if absent.
func (s *Store) AddPoints(ctx context.Context, userID int64, delta int) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO player_scores (user_id, points)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET points = points + ?`,
		userID, delta, delta,
	)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	return nil
}

// TopN returns the n highest cumulative scores.
func (s *Store) TopN(ctx context.Context, n int) ([]domain.ScoreRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT user_id, points FROM player_scores ORDER BY points DESC LIMIT ?", n)
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
