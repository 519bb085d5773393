package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iflastandards/rgauthz/internal/audit"
	"github.com/iflastandards/rgauthz/internal/observability/logger"
	"github.com/iflastandards/rgauthz/internal/observability/metrics"
	"github.com/iflastandards/rgauthz/internal/rbac"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/iflastandards/rgauthz/internal/authz"

// Service provides authorization decisions and role assignment management.
type Service struct {
	engine      *Engine
	resolver    *Resolver
	assignments AssignmentRepository
	auditLogger audit.Logger
	tracer      trace.Tracer

	decisions metric.Int64Counter
	latency   metric.Float64Histogram
}

// NewService creates a new authorization service. assignments may be nil,
// in which case principals are built from token roles only and the
// management operations return ErrAssignmentsUnavailable.
func NewService(
	engine *Engine,
	resolver *Resolver,
	assignments AssignmentRepository,
	auditLogger audit.Logger,
	meter *metrics.Meter,
) (*Service, error) {
	if meter == nil {
		meter = metrics.Noop()
	}
	decisions, err := meter.CreateCounter("authz.decisions", "Authorization verdicts by kind and verdict")
	if err != nil {
		return nil, err
	}
	latency, err := meter.CreateHistogram("authz.decision.duration", "Time spent evaluating a check request", "ms")
	if err != nil {
		return nil, err
	}
	if auditLogger == nil {
		auditLogger = audit.Discard{}
	}

	return &Service{
		engine:      engine,
		resolver:    resolver,
		assignments: assignments,
		auditLogger: auditLogger,
		tracer:      otel.Tracer(instrumentationName),
		decisions:   decisions,
		latency:     latency,
	}, nil
}

// Engine returns the underlying decision engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Resolver returns the principal resolver.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// PrincipalFor resolves claims, merging in the user's stored assignments.
func (s *Service) PrincipalFor(ctx context.Context, c Claims) (*Principal, error) {
	if s.assignments == nil || c.UserID == "" {
		return s.resolver.Resolve(c), nil
	}

	stored, err := s.assignments.ListForUser(ctx, c.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role assignments: %w", err)
	}

	merged := c
	merged.Roles = make([]string, 0, len(c.Roles)+len(stored))
	merged.Roles = append(merged.Roles, c.Roles...)
	for _, a := range stored {
		merged.Roles = append(merged.Roles, a.Token())
	}
	return s.resolver.Resolve(merged), nil
}

// Check evaluates actions on one resource.
func (s *Service) Check(ctx context.Context, p *Principal, r Resource, actions []string) CheckResult {
	ctx, span := s.tracer.Start(ctx, "authz.Check", trace.WithAttributes(
		attribute.String("authz.resource.kind", r.Kind),
		attribute.String("authz.resource.id", r.ID),
		attribute.Int("authz.actions", len(actions)),
	))
	defer span.End()

	start := time.Now()
	d := s.engine.Decide(p, r, actions)
	s.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000.0,
		metric.WithAttributes(attribute.String("operation", "check")))

	decisionID := s.record(ctx, p, r, d)
	span.SetAttributes(
		attribute.String("authz.reason", d.Reason),
		attribute.String("authz.decision_id", decisionID),
	)
	return d.CheckResult
}

// CheckBatch evaluates every item. Results are in input order.
func (s *Service) CheckBatch(ctx context.Context, p *Principal, items []CheckItem) []CheckResult {
	ctx, span := s.tracer.Start(ctx, "authz.CheckBatch", trace.WithAttributes(
		attribute.Int("authz.items", len(items)),
	))
	defer span.End()

	start := time.Now()
	out := make([]CheckResult, len(items))
	for i, it := range items {
		d := s.engine.Decide(p, it.Resource, it.Actions)
		s.record(ctx, p, it.Resource, d)
		out[i] = d.CheckResult
	}
	s.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000.0,
		metric.WithAttributes(attribute.String("operation", "check_batch")))
	return out
}

// Plan builds the resource filter for kind and action.
func (s *Service) Plan(ctx context.Context, p *Principal, kind, action string) *Plan {
	_, span := s.tracer.Start(ctx, "authz.Plan", trace.WithAttributes(
		attribute.String("authz.resource.kind", kind),
		attribute.String("authz.action", action),
	))
	defer span.End()

	plan := s.engine.Plan(p, kind, action)
	span.SetAttributes(attribute.String("authz.plan", string(plan.Kind)))
	return plan
}

// record emits metrics for every verdict and audits denials and system
// overrides. It returns the id that correlates the audit events.
func (s *Service) record(ctx context.Context, p *Principal, r Resource, d Decision) string {
	decisionID := uuid.NewString()

	var denied, allowed []string
	for action, v := range d.Actions {
		s.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", r.Kind),
			attribute.String("verdict", string(v)),
		))
		if v == Allow {
			allowed = append(allowed, action)
		} else {
			denied = append(denied, action)
		}
	}

	sort.Strings(denied)
	sort.Strings(allowed)

	principalID := ""
	if p != nil {
		principalID = p.ID
	}
	resource := r.Kind + "/" + r.ID

	if len(denied) > 0 {
		slog.DebugContext(ctx, "authorization denied",
			logger.PrincipalID(principalID),
			logger.ResourceKind(r.Kind),
			logger.ResourceID(r.ID),
			logger.ReviewGroup(d.ReviewGroup),
			logger.Action(strings.Join(denied, ",")),
			logger.Verdict(string(Deny)),
			logger.Reason(d.Reason),
			logger.DecisionID(decisionID),
		)
		s.auditLogger.Log(ctx, audit.Event{
			Type:        audit.TypeDecisionDenied,
			ReviewGroup: d.ReviewGroup,
			ActorID:     principalID,
			Resource:    resource,
			Metadata:    map[string]any{"actions": denied, "reason": d.Reason, "decision_id": decisionID},
		})
	}
	if d.Reason == ReasonSystemOverride && len(allowed) > 0 {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeDecisionOverride,
			ActorID:  principalID,
			Resource: resource,
			Metadata: map[string]any{"actions": allowed, "system_roles": p.SystemRoles, "decision_id": decisionID},
		})
	}
	return decisionID
}

// GrantRole stores role in reviewGroup for userID on behalf of actor.
func (s *Service) GrantRole(ctx context.Context, actor *Principal, userID, role, reviewGroup string) (*Assignment, error) {
	sr, err := s.scopedRole(role, reviewGroup)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, sr.ReviewGroup, userID, rbac.ActionAssignRoles); err != nil {
		return nil, err
	}
	if s.assignments == nil {
		return nil, ErrAssignmentsUnavailable
	}

	a := &Assignment{
		ID:          uuid.New().String(),
		UserID:      userID,
		Role:        sr.Role,
		ReviewGroup: sr.ReviewGroup,
		GrantedAt:   time.Now(),
		GrantedBy:   actor.ID,
	}
	if err := s.assignments.Grant(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to grant role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:        audit.TypeRoleAssigned,
		ReviewGroup: sr.ReviewGroup,
		ActorID:     actor.ID,
		Resource:    string(sr.Role),
		Metadata:    map[string]any{"user_id": userID, "assignment_id": a.ID},
	})
	return a, nil
}

// RevokeRole removes role in reviewGroup from userID on behalf of actor.
func (s *Service) RevokeRole(ctx context.Context, actor *Principal, userID, role, reviewGroup string) error {
	sr, err := s.scopedRole(role, reviewGroup)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, sr.ReviewGroup, userID, rbac.ActionAssignRoles); err != nil {
		return err
	}
	if s.assignments == nil {
		return ErrAssignmentsUnavailable
	}

	if err := s.assignments.Revoke(ctx, userID, sr.Role, sr.ReviewGroup); err != nil {
		if errors.Is(err, ErrAssignmentNotFound) {
			return err
		}
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:        audit.TypeRoleRevoked,
		ReviewGroup: sr.ReviewGroup,
		ActorID:     actor.ID,
		Resource:    string(sr.Role),
		Metadata:    map[string]any{"user_id": userID},
	})
	return nil
}

// ListRoles returns the stored assignments in reviewGroup, limited to
// userID when it is not empty.
func (s *Service) ListRoles(ctx context.Context, actor *Principal, reviewGroup, userID string) ([]*Assignment, error) {
	group, ok := s.engine.groups.Lookup(reviewGroup)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReviewGroup, reviewGroup)
	}
	if err := s.authorize(ctx, actor, group.ID, userID, rbac.ActionViewUsers); err != nil {
		return nil, err
	}
	if s.assignments == nil {
		return nil, ErrAssignmentsUnavailable
	}

	if userID == "" {
		return s.assignments.ListByReviewGroup(ctx, group.ID)
	}

	all, err := s.assignments.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	out := make([]*Assignment, 0, len(all))
	for _, a := range all {
		if a.ReviewGroup == group.ID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Service) scopedRole(role, reviewGroup string) (ScopedRole, error) {
	sr, err := s.resolver.ParseToken(role+":"+reviewGroup, "")
	if err != nil {
		return ScopedRole{}, err
	}
	group, ok := s.engine.groups.Lookup(sr.ReviewGroup)
	if !ok {
		return ScopedRole{}, fmt.Errorf("%w: %s", ErrUnknownReviewGroup, reviewGroup)
	}
	sr.ReviewGroup = group.ID
	return sr, nil
}

func (s *Service) authorize(ctx context.Context, actor *Principal, reviewGroup, userID, action string) error {
	r := Resource{
		Kind:       string(rbac.KindUserAdmin),
		ID:         userID,
		Attributes: map[string]any{AttrReviewGroup: reviewGroup},
	}
	if s.Check(ctx, actor, r, []string{action}).Allowed() {
		return nil
	}
	return ErrAccessDenied
}
