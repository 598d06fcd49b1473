// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package app wires the configured services into the HTTP handler. Every
// entry point (local server, Lambda, contentctl) builds its dependencies
// here so that nothing reads the environment after startup.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/cache"
	"portfolio/internal/config"
	"portfolio/internal/handlers"
	"portfolio/internal/models"
	"portfolio/internal/router"
	"portfolio/internal/storage"
	"portfolio/internal/store"
	"portfolio/internal/store/dynamo"
	"portfolio/internal/store/memory"
	"portfolio/internal/store/postgres"
	"portfolio/internal/transfer"
)

// Stores holds the three collections of the configured backend.
type Stores struct {
	Projects  store.Documents
	BlogPosts store.Documents
	Users     store.Users

	closers []func() error
}

// Collections returns the content collections for export and import.
func (s *Stores) Collections() []transfer.Collection {
	return []transfer.Collection{
		{Resource: models.Projects, Docs: s.Projects},
		{Resource: models.BlogPosts, Docs: s.BlogPosts},
	}
}

// Close releases backend connections.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenStores connects to the backend selected by cfg.StoreBackend.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.Region, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		slog.Info("dynamodb store configured",
			"region", cfg.Region,
			"projects_table", cfg.ProjectsTable,
			"blog_posts_table", cfg.BlogPostsTable,
		)
		return &Stores{
			Projects:  dynamo.NewDocuments(client, cfg.ProjectsTable, cfg.SlugIndex),
			BlogPosts: dynamo.NewDocuments(client, cfg.BlogPostsTable, cfg.SlugIndex),
			Users:     dynamo.NewUsers(client, cfg.UsersTable, cfg.UsernameIndex),
		}, nil

	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("postgres store configured", "host", cfg.DBHost, "db", cfg.DBName)
		return &Stores{
			Projects:  postgres.NewDocuments(db, models.Projects.Name),
			BlogPosts: postgres.NewDocuments(db, models.BlogPosts.Name),
			Users:     postgres.NewUsers(db),
			closers:   []func() error{db.Close},
		}, nil

	case config.BackendMemory:
		slog.Warn("memory store configured, data is lost on restart")
		return &Stores{
			Projects:  memory.NewDocuments(),
			BlogPosts: memory.NewDocuments(),
			Users:     memory.NewUsers(),
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// App is the assembled API.
type App struct {
	Handler http.Handler
	Stores  *Stores

	closers []func() error
}

// New builds the API from cfg. The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	a, err := Build(ctx, cfg, stores)
	if err != nil {
		stores.Close()
		return nil, err
	}
	a.closers = append(a.closers, stores.Close)
	return a, nil
}

// Build assembles the handler on top of already opened stores.
func Build(ctx context.Context, cfg *config.Config, stores *Stores) (*App, error) {
	a := &App{Stores: stores}

	tokens, err := newTokens(cfg)
	if err != nil {
		return nil, err
	}

	signer, err := newSigner(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// A nil *cache.Responses must not reach the handlers as a non-nil
	// interface, so the interface value is only set when a cache exists.
	var rc handlers.ResponseCache
	if cfg.CacheEnabled() {
		client, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Warn("valkey unavailable, response cache disabled", "error", err)
		} else {
			rc = cache.NewResponses(client, cfg.CacheTTL)
			a.closers = append(a.closers, client.Close)
			slog.Info("response cache enabled", "host", cfg.ValkeyHost, "ttl", cfg.CacheTTL)
		}
	}

	a.Handler = router.New(router.Deps{
		Tokens:         tokens,
		Auth:           handlers.NewAuth(stores.Users, tokens, cfg.AdminPasswordHash),
		Projects:       handlers.NewContent(models.Projects, stores.Projects, rc),
		BlogPosts:      handlers.NewContent(models.BlogPosts, stores.BlogPosts, rc),
		Upload:         handlers.NewUpload(signer, cfg.UploadPrefix, cfg.MaxUploadBytes, cfg.UploadURLTTL),
		AllowedOrigins: cfg.AllowedOrigins,
	})
	return a, nil
}

// Close releases every connection held by the app.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newTokens creates the token issuer. Development runs without JWT_SECRET
// get a random per-process secret.
func newTokens(cfg *config.Config) (*auth.Tokens, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 && cfg.IsDev() {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	tokens, err := auth.NewTokens(secret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	return tokens, nil
}

// newSigner connects the upload presigner. Without a bucket, uploads are
// answered with an error instead of failing startup.
func newSigner(ctx context.Context, cfg *config.Config) (handlers.Presigner, error) {
	if cfg.UploadBucket == "" {
		slog.Warn("UPLOAD_BUCKET not set, upload URLs disabled")
		return disabledSigner{}, nil
	}
	client, err := storage.New(ctx, storage.Options{
		Bucket:    cfg.UploadBucket,
		Region:    cfg.Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}
	slog.Info("upload storage configured", "bucket", client.Bucket(), "endpoint", cfg.S3Endpoint)
	return client, nil
}

// errUploadsDisabled is returned by the placeholder signer.
var errUploadsDisabled = errors.New("upload bucket is not configured")

type disabledSigner struct{}

func (disabledSigner) PresignUpload(context.Context, string, string, time.Duration) (string, error) {
	return "", errUploadsDisabled
}

func (disabledSigner) FileURL(string) string { return "" }
