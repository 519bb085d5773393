package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iflastandards/rgauthz/internal/audit"
	"github.com/iflastandards/rgauthz/internal/config"
	"github.com/iflastandards/rgauthz/internal/rbac"
	"github.com/iflastandards/rgauthz/internal/reviewgroup"
	"github.com/iflastandards/rgauthz/internal/store/postgres"
)

// loadPolicy compiles the configured policy document, or the built-in one.
func loadPolicy(ctx context.Context, cfg config.PolicyConfig, auditLogger audit.Logger) (*rbac.Model, error) {
	source := "builtin"
	model := rbac.DefaultModel()
	if cfg.File != "" {
		m, err := rbac.LoadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy: %w", err)
		}
		source, model = cfg.File, m
	}

	auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypePolicyLoaded,
		ActorID:  "system",
		Resource: source,
		Metadata: map[string]any{"kinds": len(model.Kinds())},
	})
	return model, nil
}

// loadRegistry picks the review group source: an explicit file, then
// storage, then the policy file, then the built-in groups. db may be nil.
func loadRegistry(ctx context.Context, cfg *config.Config, db *postgres.DB, auditLogger audit.Logger) (*reviewgroup.Registry, error) {
	switch {
	case cfg.Policy.ReviewGroupsFile != "":
		return reviewgroup.LoadFile(cfg.Policy.ReviewGroupsFile)

	case db != nil:
		svc := reviewgroup.NewService(postgres.NewReviewGroupRepository(db), auditLogger)
		if cfg.Database.SeedDefaults {
			if err := svc.Seed(ctx); err != nil {
				return nil, fmt.Errorf("failed to seed review groups: %w", err)
			}
		}
		return svc.Load(ctx)

	case cfg.Policy.File != "":
		return reviewgroup.LoadFile(cfg.Policy.File)
	}

	slog.InfoContext(ctx, "using built-in review groups")
	return reviewgroup.DefaultRegistry(), nil
}
