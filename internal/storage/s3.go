// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage issues presigned upload URLs for the media bucket. File
// bytes never pass through the API; clients PUT directly to the signed URL.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures the storage client.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string // optional S3-compatible endpoint; enables path-style access
	AccessKey string // optional; the default AWS credential chain is used when empty
	SecretKey string
	PublicURL string // optional CDN/base URL for uploaded objects
}

// Client signs upload requests for one bucket.
type Client struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
	endpoint  string
	publicURL string
}

// New creates a storage client. Static credentials are used when both keys
// are set, which is how S3-compatible services and tests are configured;
// otherwise credentials come from the AWS default chain (the Lambda role).
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")

	var s3Client *s3.Client
	if opts.AccessKey != "" && opts.SecretKey != "" {
		s3Client = s3.New(s3.Options{
			Region:       opts.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
			BaseEndpoint: optionalString(endpoint),
			UsePathStyle: endpoint != "",
		})
	} else {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		s3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = optionalString(endpoint)
			o.UsePathStyle = endpoint != ""
		})
	}

	return &Client{
		presigner: s3.NewPresignClient(s3Client),
		bucket:    opts.Bucket,
		region:    opts.Region,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// PresignUpload returns a URL that allows a single PUT of key with the given
// content type until ttl elapses.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign put %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}

// FileURL returns the public read URL for key. Uses the configured public
// URL if set, then a path-style URL on a custom endpoint, and finally the
// regional virtual-hosted AWS URL.
func (c *Client) FileURL(key string) string {
	escaped := escapeKey(key)
	switch {
	case c.publicURL != "":
		return c.publicURL + "/" + escaped
	case c.endpoint != "":
		return c.endpoint + "/" + c.bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, escaped)
	}
}

// Bucket returns the name of the upload bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
