// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package dynamo implements the store interfaces on Amazon DynamoDB. Each
// collection is its own table keyed by id, with a global secondary index on
// slug (documents) or username (users).
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"portfolio/internal/models"
	"portfolio/internal/store"
)

// API is the subset of *dynamodb.Client used by the stores.
type API interface {
	dynamodb.ScanAPIClient
	dynamodb.QueryAPIClient
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// NewClient builds a DynamoDB client from the default AWS credential chain.
// A non-empty endpoint points the client at DynamoDB Local or a compatible
// service.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Documents is a content collection stored in one table.
type Documents struct {
	client    API
	table     string
	slugIndex string
}

// NewDocuments returns a store for the given table and slug index.
func NewDocuments(client API, table, slugIndex string) *Documents {
	return &Documents{client: client, table: table, slugIndex: slugIndex}
}

// Scan reads the whole table, following pagination.
func (s *Documents) Scan(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{TableName: aws.String(s.table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrap("scan", s.table, err)
		}
		for _, item := range page.Items {
			d, err := decodeDocument(item)
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", s.table, err)
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// FindBySlug queries the slug index and returns the first match, or nil.
func (s *Documents) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		IndexName:                aws.String(s.slugIndex),
		KeyConditionExpression:   aws.String("#slug = :slug"),
		ExpressionAttributeNames: map[string]string{"#slug": models.AttrSlug},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slug": &types.AttributeValueMemberS{Value: slug},
		},
	})
	if err != nil {
		return nil, wrap("query slug", s.table, err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	return decodeDocument(out.Items[0])
}

// Put writes the full record.
func (s *Documents) Put(ctx context.Context, doc *models.Document) error {
	item, err := attributevalue.MarshalMap(doc.Map())
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return wrap("put", s.table, err)
	}
	return nil
}

// Update sets the given attributes on an existing record. The write is
// conditional on the id existing so a stale id never creates a partial item.
func (s *Documents) Update(ctx context.Context, id string, set map[string]any) error {
	if len(set) == 0 {
		return nil
	}
	expr, names, values, err := buildSet(set)
	if err != nil {
		return err
	}
	names["#id"] = models.AttrID

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       idKey(id),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.ErrNotFound
		}
		return wrap("update", s.table, err)
	}
	return nil
}

// Delete removes the record by id.
func (s *Documents) Delete(ctx context.Context, id string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       idKey(id),
	}); err != nil {
		return wrap("delete", s.table, err)
	}
	return nil
}

// Users is the admin account table.
type Users struct {
	client        API
	table         string
	usernameIndex string
}

// NewUsers returns a user store for the given table and username index.
func NewUsers(client API, table, usernameIndex string) *Users {
	return &Users{client: client, table: table, usernameIndex: usernameIndex}
}

// FindByUsername queries the username index. Returns nil if not found.
func (s *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(s.table),
		IndexName:                aws.String(s.usernameIndex),
		KeyConditionExpression:   aws.String("#username = :username"),
		ExpressionAttributeNames: map[string]string{"#username": "username"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":username": &types.AttributeValueMemberS{Value: username},
		},
	})
	if err != nil {
		return nil, wrap("query username", s.table, err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	u := &models.User{}
	if err := attributevalue.UnmarshalMap(out.Items[0], u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return u, nil
}

// Create inserts a new user. An existing item with the same id is not
// overwritten.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	}); err != nil {
		return wrap("create user", s.table, err)
	}
	return nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		models.AttrID: &types.AttributeValueMemberS{Value: id},
	}
}

// buildSet renders a deterministic "SET #a0 = :v0, ..." expression with
// placeholder names for every attribute, so reserved words are safe.
func buildSet(set map[string]any) (string, map[string]string, map[string]types.AttributeValue, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string, len(keys)+1)
	values := make(map[string]types.AttributeValue, len(keys))
	clauses := make([]string, 0, len(keys))
	for i, k := range keys {
		n, v := "#a"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal attribute %q: %w", k, err)
		}
		names[n] = k
		values[v] = av
		clauses = append(clauses, n+" = "+v)
	}
	return "SET " + strings.Join(clauses, ", "), names, values, nil
}

func decodeDocument(item map[string]types.AttributeValue) (*models.Document, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return models.DocumentFromMap(m)
}

// wrap annotates a service error with the operation, table and, when
// available, the service error code.
func wrap(op, table string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("dynamodb %s %s (%s): %w", op, table, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("dynamodb %s %s: %w", op, table, err)
}

var (
	_ store.Documents = (*Documents)(nil)
	_ store.Users     = (*Users)(nil)
)
