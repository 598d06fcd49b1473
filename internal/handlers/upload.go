// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio/internal/apperr"
	"portfolio/internal/middleware"
)

// Presigner issues signed upload URLs. *storage.Client implements it.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	FileURL(key string) string
}

// Upload hands out presigned URLs for direct client-to-bucket uploads.
type Upload struct {
	signer   Presigner
	prefix   string
	maxBytes int64
	ttl      time.Duration
	now      func() time.Time
}

// NewUpload creates the upload handler. Keys are placed under prefix.
func NewUpload(signer Presigner, prefix string, maxBytes int64, ttl time.Duration) *Upload {
	return &Upload{
		signer:   signer,
		prefix:   strings.Trim(prefix, "/"),
		maxBytes: maxBytes,
		ttl:      ttl,
		now:      time.Now,
	}
}

type uploadRequest struct {
	Filename    string   `json:"filename"`
	ContentType string   `json:"contentType"`
	FileSize    *float64 `json:"fileSize"`
}

type uploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Create validates the declared file and returns a signed PUT URL scoped to
// a per-user key. The declared size is checked here only; the bucket does
// not enforce it on the eventual upload.
func (u *Upload) Create(w http.ResponseWriter, r *http.Request) error {
	claims := middleware.ClaimsFromCtx(r.Context())
	if claims == nil {
		return apperr.Unauthorized("Unauthorized", "Missing or invalid authentication token")
	}

	var req uploadRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	req.Filename = strings.TrimSpace(req.Filename)
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.Filename == "" || req.ContentType == "" {
		return apperr.Validation("filename and contentType are required")
	}
	if req.FileSize != nil {
		if *req.FileSize < 0 {
			return apperr.Validation("fileSize must not be negative")
		}
		if *req.FileSize > float64(u.maxBytes) {
			return apperr.Validation(fmt.Sprintf("File too large (max %d bytes)", u.maxBytes))
		}
	}

	key := u.key(claims.UserID, req.Filename)
	uploadURL, err := u.signer.PresignUpload(r.Context(), key, req.ContentType, u.ttl)
	if err != nil {
		return apperr.Upstream(err)
	}

	slog.Info("upload url issued", "key", key, "content_type", req.ContentType)
	writeJSON(w, http.StatusOK, uploadResponse{
		UploadURL: uploadURL,
		URL:       u.signer.FileURL(key),
		Key:       key,
		ExpiresIn: int64(u.ttl / time.Second),
	})
	return nil
}

// key builds {prefix}/{userId}/{unixMillis}-{sanitizedFilename}.
func (u *Upload) key(userID, filename string) string {
	name := strconv.FormatInt(u.now().UnixMilli(), 10) + "-" + sanitizeFilename(filename)
	parts := []string{sanitizeFilename(userID), name}
	if u.prefix != "" {
		parts = append([]string{u.prefix}, parts...)
	}
	return strings.Join(parts, "/")
}
