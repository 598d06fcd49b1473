// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package postgres implements the store interfaces on PostgreSQL for local
// development. Documents are kept as JSONB in one table partitioned by a
// collection column; the schema is managed by embedded goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"portfolio/internal/models"
	"portfolio/internal/store"
)

//go:embed migrations
var embedMigrations embed.FS

// Connect opens a PostgreSQL connection pool using the provided DSN.
// It verifies the connection with a ping before returning.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected")
	return db, nil
}

// Migrate runs all pending goose migrations from the embedded SQL files.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("database migrations applied")
	return nil
}

// Documents is one collection in the documents table.
type Documents struct {
	db         *sql.DB
	collection string
}

// NewDocuments returns a store scoped to collection.
func NewDocuments(db *sql.DB, collection string) *Documents {
	return &Documents{db: db, collection: collection}
}

// Scan returns every record in the collection.
func (s *Documents) Scan(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM documents WHERE collection = $1`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.collection, err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.collection, err)
		}
		d := &models.Document{}
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", s.collection, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// FindBySlug returns a record with the slug, or nil if none exists.
func (s *Documents) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND slug = $2 ORDER BY (doc->>'createdAt')::bigint, id LIMIT 1`,
		s.collection, slug,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by slug: %w", s.collection, err)
	}

	d := &models.Document{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.collection, err)
	}
	return d, nil
}

// Put inserts or replaces the record.
func (s *Documents) Put(ctx context.Context, doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, slug, doc) VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET slug = EXCLUDED.slug, doc = EXCLUDED.doc
	`, s.collection, doc.ID, doc.Slug, raw)
	if err != nil {
		return fmt.Errorf("put %s: %w", s.collection, err)
	}
	return nil
}

// Update merges set into the stored JSONB document.
func (s *Documents) Update(ctx context.Context, id string, set map[string]any) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET doc = doc || $3::jsonb
		WHERE collection = $1 AND id = $2
	`, s.collection, id, raw)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.collection, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the record by id.
func (s *Documents) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, s.collection, id,
	); err != nil {
		return fmt.Errorf("delete %s: %w", s.collection, err)
	}
	return nil
}

// Users handles admin account rows.
type Users struct {
	db *sql.DB
}

// NewUsers creates a user store.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// FindByUsername retrieves the oldest user with the username. Returns nil if not found.
func (s *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users WHERE username = $1
		ORDER BY created_at ASC LIMIT 1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// Create inserts a new user row.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

var (
	_ store.Documents = (*Documents)(nil)
	_ store.Users     = (*Users)(nil)
)
