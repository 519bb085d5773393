// Copyright 2026 The IFLA Standards Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reviewgroup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iflastandards/rgauthz/internal/audit"
)

// Service builds registries from storage
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new review group service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	if auditLogger == nil {
		auditLogger = audit.Discard{}
	}
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// Create stores a new review group
func (s *Service) Create(ctx context.Context, id, name string, sites []string) (*ReviewGroup, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidGroup)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}

	if _, err := s.repo.GetByID(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateGroup, id)
	} else if !errors.Is(err, ErrReviewGroupNotFound) {
		return nil, fmt.Errorf("failed to check review group: %w", err)
	}

	now := time.Now()
	g := &ReviewGroup{
		ID:        id,
		Name:      name,
		Sites:     sites,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create review group: %w", err)
	}
	return g, nil
}

// Seed stores every default group that is not yet present.
func (s *Service) Seed(ctx context.Context) error {
	var created []string
	for _, g := range Defaults() {
		_, err := s.repo.GetByID(ctx, g.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrReviewGroupNotFound) {
			return fmt.Errorf("failed to check review group %s: %w", g.ID, err)
		}
		if _, err := s.Create(ctx, g.ID, g.Name, g.Sites); err != nil {
			return err
		}
		created = append(created, g.ID)
	}

	if len(created) > 0 {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeRegistrySeeded,
			ActorID:  "system",
			Resource: "review_groups",
			Metadata: map[string]any{"created": created},
		})
	}
	return nil
}

// Load builds a registry from the active groups in storage.
func (s *Service) Load(ctx context.Context) (*Registry, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list review groups: %w", err)
	}

	groups := make([]ReviewGroup, 0, len(stored))
	for _, g := range stored {
		if g.Status == StatusInactive {
			continue
		}
		groups = append(groups, *g)
	}

	reg, err := NewRegistry(groups...)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "review group registry loaded", slog.Int("groups", reg.Len()))
	return reg, nil
}
