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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iflastandards/rgauthz/internal/reviewgroup"
	"github.com/jackc/pgx/v5"
)

// ReviewGroupRepository implements reviewgroup.Repository
type ReviewGroupRepository struct {
	db *DB
}

// NewReviewGroupRepository creates a new review group repository
func NewReviewGroupRepository(db *DB) *ReviewGroupRepository {
	return &ReviewGroupRepository{db: db}
}

// Create stores a group and its sites in one transaction
func (r *ReviewGroupRepository) Create(ctx context.Context, g *reviewgroup.ReviewGroup) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO review_groups (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, g.ID, g.Name, g.Status, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", reviewgroup.ErrDuplicateGroup, g.ID)
		}
		return fmt.Errorf("failed to create review group: %w", err)
	}

	for i, site := range g.Sites {
		_, err := tx.Exec(ctx, `
			INSERT INTO review_group_sites (site_key, review_group_id, position)
			VALUES ($1, $2, $3)
		`, strings.ToLower(site), g.ID, i)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", reviewgroup.ErrSiteOwnedTwice, site)
			}
			return fmt.Errorf("failed to add site %s: %w", site, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a group with its sites
func (r *ReviewGroupRepository) GetByID(ctx context.Context, id string) (*reviewgroup.ReviewGroup, error) {
	var g reviewgroup.ReviewGroup
	err := r.db.pool.QueryRow(ctx, `
		SELECT g.id, g.name, g.status, g.created_at, g.updated_at,
		       COALESCE(array_agg(s.site_key ORDER BY s.position) FILTER (WHERE s.site_key IS NOT NULL), '{}')
		FROM review_groups g
		LEFT JOIN review_group_sites s ON s.review_group_id = g.id
		WHERE g.id = $1
		GROUP BY g.id
	`, id).Scan(&g.ID, &g.Name, &g.Status, &g.CreatedAt, &g.UpdatedAt, &g.Sites)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reviewgroup.ErrReviewGroupNotFound
		}
		return nil, fmt.Errorf("failed to get review group: %w", err)
	}
	return &g, nil
}

// List retrieves every group ordered by creation time
func (r *ReviewGroupRepository) List(ctx context.Context) ([]*reviewgroup.ReviewGroup, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT g.id, g.name, g.status, g.created_at, g.updated_at,
		       COALESCE(array_agg(s.site_key ORDER BY s.position) FILTER (WHERE s.site_key IS NOT NULL), '{}')
		FROM review_groups g
		LEFT JOIN review_group_sites s ON s.review_group_id = g.id
		GROUP BY g.id
		ORDER BY g.created_at, g.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list review groups: %w", err)
	}
	defer rows.Close()

	var groups []*reviewgroup.ReviewGroup
	for rows.Next() {
		var g reviewgroup.ReviewGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &g.CreatedAt, &g.UpdatedAt, &g.Sites); err != nil {
			return nil, fmt.Errorf("failed to scan review group: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

// Delete removes a group, its sites and its role assignments
func (r *ReviewGroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM review_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return reviewgroup.ErrReviewGroupNotFound
	}
	return nil
}
