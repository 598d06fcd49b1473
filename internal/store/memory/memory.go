// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memory is an in-process implementation of the store interfaces.
// It backs tests and STORE_BACKEND=memory demos; data does not survive a
// restart.
package memory

import (
	"context"
	"sync"

	"portfolio/internal/models"
	"portfolio/internal/store"
)

// Documents is a mutex-guarded collection. The exported hook fields let
// tests inject failures; they are consulted before the operation runs.
type Documents struct {
	mu    sync.Mutex
	ids   []string // insertion order
	items map[string]*models.Document
	// mutations counts successful Put, Update and Delete calls.
	mutations int

	ScanErr   error
	FindErr   error
	PutErr    error
	DeleteErr error
	// UpdateHook, when set, is called before every Update. A non-nil return
	// aborts that update.
	UpdateHook func(id string, set map[string]any) error
}

// NewDocuments returns an empty collection.
func NewDocuments() *Documents {
	return &Documents{items: make(map[string]*models.Document)}
}

// Scan returns copies of every record in insertion order.
func (s *Documents) Scan(_ context.Context) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	out := make([]*models.Document, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.items[id].Clone())
	}
	return out, nil
}

// FindBySlug returns a copy of the first inserted record with the slug.
func (s *Documents) FindBySlug(_ context.Context, slug string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, id := range s.ids {
		if d := s.items[id]; d.Slug == slug {
			return d.Clone(), nil
		}
	}
	return nil, nil
}

// Put stores a copy of doc, replacing any record with the same id.
func (s *Documents) Put(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PutErr != nil {
		return s.PutErr
	}
	if _, exists := s.items[doc.ID]; !exists {
		s.ids = append(s.ids, doc.ID)
	}
	s.items[doc.ID] = doc.Clone()
	s.mutations++
	return nil
}

// Update merges set into the record with the given id.
func (s *Documents) Update(_ context.Context, id string, set map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UpdateHook != nil {
		if err := s.UpdateHook(id, set); err != nil {
			return err
		}
	}
	d, ok := s.items[id]
	if !ok {
		return store.ErrNotFound
	}
	d.Apply(set)
	s.mutations++
	return nil
}

// Delete removes the record with the given id if present.
func (s *Documents) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.mutations++
	return nil
}

// Get returns a copy of the record with the given id, or nil.
func (s *Documents) Get(id string) *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.items[id]; ok {
		return d.Clone()
	}
	return nil
}

// Len returns the number of stored records.
func (s *Documents) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Mutations returns the number of successful writes so far.
func (s *Documents) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

// Users is a mutex-guarded user table. Usernames are not unique, matching
// the secondary-index lookup of the production store.
type Users struct {
	mu    sync.Mutex
	users []*models.User

	FindErr   error
	CreateErr error
}

// NewUsers returns an empty user table.
func NewUsers() *Users {
	return &Users{}
}

// FindByUsername returns a copy of the first user with the username.
func (s *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FindErr != nil {
		return nil, s.FindErr
	}
	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create appends a copy of u.
func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	c := *u
	s.users = append(s.users, &c)
	return nil
}

// Count returns how many users carry the username.
func (s *Users) Count(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, u := range s.users {
		if u.Username == username {
			n++
		}
	}
	return n
}

var (
	_ store.Documents = (*Documents)(nil)
	_ store.Users     = (*Users)(nil)
)
