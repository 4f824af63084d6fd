// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists built feeds into a SQLite sink. The feed core
// treats persistence as external: this package only writes normalized
// papers and keywords and reads them back; it owns no collection logic.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-feed/pkg/types"
)

// Store manages the feed SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the feed database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			dedup_key TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT,
			snippet TEXT,
			authors TEXT,
			source TEXT NOT NULL,
			publication_date TEXT,
			raw_publication_date TEXT,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_publication_date ON papers(publication_date)`,
		`CREATE TABLE IF NOT EXISTS keywords (
			keyword TEXT PRIMARY KEY,
			added_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSummary holds counts from one feed persistence run.
type SaveSummary struct {
	Inserted int
	Updated  int
}

// SavePapers upserts papers keyed by their dedup key. Re-saving the same
// feed is idempotent: existing rows are refreshed, not duplicated.
func (s *Store) SavePapers(ctx context.Context, papers []types.Paper) (SaveSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO papers
		(dedup_key, title, url, snippet, authors, source, publication_date, raw_publication_date, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO UPDATE SET
			title=excluded.title, url=excluded.url, snippet=excluded.snippet,
			authors=excluded.authors, source=excluded.source,
			publication_date=excluded.publication_date,
			raw_publication_date=excluded.raw_publication_date,
			fetched_at=excluded.fetched_at`)
	if err != nil {
		return SaveSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	var summary SaveSummary
	for _, p := range papers {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM papers WHERE dedup_key = ?`, p.DedupKey(),
		).Scan(&exists); err != nil {
			return SaveSummary{}, fmt.Errorf("checking paper %q: %w", p.Title, err)
		}

		var pubDate any
		if !p.Date.IsZero() {
			pubDate = p.Date.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, p.DedupKey(), p.Title, p.URL, p.Snippet,
			p.Authors, p.Source, pubDate, p.RawDate, now); err != nil {
			return SaveSummary{}, fmt.Errorf("saving paper %q: %w", p.Title, err)
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return SaveSummary{}, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// SaveKeywords records the keywords a feed was built from. Existing
// keywords keep their original added_at.
func (s *Store) SaveKeywords(ctx context.Context, keywords []string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, kw := range keywords {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO keywords (keyword, added_at) VALUES (?, ?)
			 ON CONFLICT(keyword) DO NOTHING`, kw, now); err != nil {
			return fmt.Errorf("saving keyword %q: %w", kw, err)
		}
	}
	return nil
}

// Keywords returns all stored keywords in insertion order.
func (s *Store) Keywords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT keyword FROM keywords ORDER BY added_at, keyword`)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// RecentPapers returns stored papers published within the trailing window,
// newest first, up to limit.
func (s *Store) RecentPapers(ctx context.Context, window time.Duration, limit int) ([]types.Paper, error) {
	if limit <= 0 {
		limit = 50
	}
	cutoff := time.Now().UTC().Add(-window).Format(time.RFC3339)

	rows, err := s.db.QueryContext(ctx, `SELECT title, url, snippet, authors, source,
			publication_date, raw_publication_date
		FROM papers
		WHERE publication_date IS NOT NULL AND publication_date >= ?
		ORDER BY publication_date DESC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var p types.Paper
		var url, snippet, authors, pubDate, rawDate sql.NullString
		if err := rows.Scan(&p.Title, &url, &snippet, &authors, &p.Source, &pubDate, &rawDate); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.URL = url.String
		p.Snippet = snippet.String
		p.Authors = authors.String
		p.RawDate = rawDate.String
		if pubDate.Valid {
			if t, parseErr := time.Parse(time.RFC3339, pubDate.String); parseErr == nil {
				p.Date = t
			}
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
