// Package store persists completed analyses and fix requests in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wpaudit/backend/analyzer"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	url         TEXT NOT NULL,
	score       INTEGER NOT NULL,
	analyzed_at TIMESTAMP NOT NULL,
	report      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_url ON analyses(url);

CREATE TABLE IF NOT EXISTS fix_requests (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	url          TEXT NOT NULL,
	issue_id     TEXT NOT NULL,
	requested_at TIMESTAMP NOT NULL
);
`

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// AnalysisSummary is one history listing row.
type AnalysisSummary struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Score      int       `json:"score"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// Open opens (or creates) the database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis stores a completed report as a JSON row and returns its id.
func (s *Store) SaveAnalysis(result *analyzer.AnalysisResult) (int64, error) {
	report, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}
	res, err := s.db.Exec(
		"INSERT INTO analyses (url, score, analyzed_at, report) VALUES (?, ?, ?, ?)",
		result.URL, result.Score.Overall, result.AnalyzedAt, string(report),
	)
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	return res.LastInsertId()
}

// GetAnalysis loads one stored report.
func (s *Store) GetAnalysis(id int64) (*analyzer.AnalysisResult, error) {
	var report string
	err := s.db.QueryRow("SELECT report FROM analyses WHERE id = ?", id).Scan(&report)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	var result analyzer.AnalysisResult
	if err := json.Unmarshal([]byte(report), &result); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &result, nil
}

// ListAnalyses returns the most recent analyses, newest first.
func (s *Store) ListAnalyses(limit int) ([]AnalysisSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT id, url, score, analyzed_at FROM analyses ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	summaries := make([]AnalysisSummary, 0, limit)
	for rows.Next() {
		var sum AnalysisSummary
		if err := rows.Scan(&sum.ID, &sum.URL, &sum.Score, &sum.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// RecordFixRequest stores one row per requested issue id.
func (s *Store) RecordFixRequest(url string, issueIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO fix_requests (url, issue_id, requested_at) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, id := range issueIDs {
		if _, err := stmt.Exec(url, id, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert fix request: %w", err)
		}
	}
	return tx.Commit()
}

// CountFixRequests returns the number of recorded fix requests for a URL.
func (s *Store) CountFixRequests(url string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM fix_requests WHERE url = ?", url).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fix requests: %w", err)
	}
	return count, nil
}
