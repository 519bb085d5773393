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
	"database/sql"
	"fmt"
	"time"

	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/jackc/pgx/v5"
)

// AssignmentRepository implements authz.AssignmentRepository
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new role assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Grant stores a role assignment
func (r *AssignmentRepository) Grant(ctx context.Context, a *authz.Assignment) error {
	if a.GrantedAt.IsZero() {
		a.GrantedAt = time.Now()
	}

	var grantedBy sql.NullString
	if a.GrantedBy != "" {
		grantedBy = sql.NullString{String: a.GrantedBy, Valid: true}
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO role_assignments (id, user_id, role, review_group_id, granted_at, granted_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.UserID, string(a.Role), a.ReviewGroup, a.GrantedAt, grantedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return authz.ErrAssignmentAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", authz.ErrUnknownReviewGroup, a.ReviewGroup)
		}
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// Revoke removes a role assignment
func (r *AssignmentRepository) Revoke(ctx context.Context, userID string, role rbac.Role, reviewGroup string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM role_assignments
		WHERE user_id = $1 AND role = $2 AND review_group_id = $3
	`, userID, string(role), reviewGroup)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authz.ErrAssignmentNotFound
	}
	return nil
}

// ListForUser retrieves all assignments of a user
func (r *AssignmentRepository) ListForUser(ctx context.Context, userID string) ([]*authz.Assignment, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id::text, user_id, role, review_group_id, granted_at, granted_by
		FROM role_assignments
		WHERE user_id = $1
		ORDER BY review_group_id, role
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user assignments: %w", err)
	}
	return scanAssignments(rows)
}

// ListByReviewGroup retrieves all assignments within a review group
func (r *AssignmentRepository) ListByReviewGroup(ctx context.Context, reviewGroup string) ([]*authz.Assignment, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id::text, user_id, role, review_group_id, granted_at, granted_by
		FROM role_assignments
		WHERE review_group_id = $1
		ORDER BY user_id, role
	`, reviewGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to list review group assignments: %w", err)
	}
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]*authz.Assignment, error) {
	defer rows.Close()

	assignments := []*authz.Assignment{}
	for rows.Next() {
		var a authz.Assignment
		var role string
		var grantedBy sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &role, &a.ReviewGroup, &a.GrantedAt, &grantedBy); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Role = rbac.Role(role)
		if grantedBy.Valid {
			a.GrantedBy = grantedBy.String
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}
